package ipecho

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/netip"
	"strings"

	"vyas.io/opensesshiame/internal/constants"
)

// StatusError is a non-200 reply from the address-echo service.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("address-echo service replied with status %d", e.Code)
}

// Client resolves the caller's public IPv4 address via an external
// address-echo service.
type Client struct {
	httpClient *http.Client
	endpoint   string
}

// NewClient returns a resolver for the given endpoint. Empty endpoint and
// nil httpClient select the defaults (api.ipify.org, 10s timeout).
func NewClient(endpoint string, httpClient *http.Client) *Client {
	if endpoint == "" {
		endpoint = constants.DefaultAddressEndpoint
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: constants.RequestTimeout}
	}
	return &Client{httpClient: httpClient, endpoint: endpoint}
}

// CurrentAddress performs one fresh lookup of the caller's public IPv4
// address. No caching and no retries; transport failures and non-200
// replies surface immediately.
func (c *Client) CurrentAddress(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("building address request: %w", err)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("querying %s: %w", c.endpoint, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return "", &StatusError{Code: res.StatusCode}
	}

	// A dotted quad is at most 15 bytes; anything near the limit is garbage.
	body, err := io.ReadAll(io.LimitReader(res.Body, 64))
	if err != nil {
		return "", fmt.Errorf("reading address response: %w", err)
	}

	text := strings.TrimSpace(string(body))
	addr, err := netip.ParseAddr(text)
	if err != nil || !addr.Is4() {
		return "", fmt.Errorf("address-echo service returned %q, not an IPv4 address", text)
	}
	return text, nil
}
