package ipecho

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrentAddress(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("203.0.113.7\n"))
	}))
	defer srv.Close()

	addr, err := NewClient(srv.URL, srv.Client()).CurrentAddress(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "203.0.113.7", addr)
}

func TestCurrentAddress_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, srv.Client()).CurrentAddress(context.Background())
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.Code)
}

func TestCurrentAddress_NotAnAddress(t *testing.T) {
	for _, body := range []string{"<html>blocked</html>", "", "2001:db8::1"} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		}))

		_, err := NewClient(srv.URL, srv.Client()).CurrentAddress(context.Background())
		assert.Error(t, err, "body %q", body)
		var statusErr *StatusError
		assert.False(t, errors.As(err, &statusErr), "body %q should not be a status error", body)
		srv.Close()
	}
}

func TestCurrentAddress_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	_, err := NewClient(srv.URL, nil).CurrentAddress(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), srv.URL)
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient("", nil)
	assert.Equal(t, "https://api.ipify.org", c.endpoint)
	require.NotNil(t, c.httpClient)
	assert.NotZero(t, c.httpClient.Timeout)
}
