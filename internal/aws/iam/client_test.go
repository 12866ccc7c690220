package iam

import (
	"context"
	"errors"
	"strings"
	"testing"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	awsiam "github.com/aws/aws-sdk-go-v2/service/iam"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"
)

type mockIAMAPI struct {
	listUserTagsFunc func(ctx context.Context, params *awsiam.ListUserTagsInput, optFns ...func(*awsiam.Options)) (*awsiam.ListUserTagsOutput, error)
}

func (m *mockIAMAPI) ListUserTags(ctx context.Context, params *awsiam.ListUserTagsInput, optFns ...func(*awsiam.Options)) (*awsiam.ListUserTagsOutput, error) {
	return m.listUserTagsFunc(ctx, params, optFns...)
}

func TestResolveIdentityTag(t *testing.T) {
	mock := &mockIAMAPI{
		listUserTagsFunc: func(ctx context.Context, params *awsiam.ListUserTagsInput, optFns ...func(*awsiam.Options)) (*awsiam.ListUserTagsOutput, error) {
			if awssdk.ToString(params.UserName) != "alice" {
				t.Errorf("UserName = %s, want alice", awssdk.ToString(params.UserName))
			}
			return &awsiam.ListUserTagsOutput{
				Tags: []iamtypes.Tag{
					{Key: awssdk.String("team"), Value: awssdk.String("infra")},
					{Key: awssdk.String("openSeSSHIAMe-ID"), Value: awssdk.String("abc123")},
				},
			}, nil
		},
	}

	tag, err := NewClient(mock).ResolveIdentityTag(context.Background(), "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tag != "openSeSSHIAMe-abc123" {
		t.Errorf("tag = %s, want openSeSSHIAMe-abc123", tag)
	}
}

func TestResolveIdentityTag_Paginated(t *testing.T) {
	calls := 0
	mock := &mockIAMAPI{
		listUserTagsFunc: func(ctx context.Context, params *awsiam.ListUserTagsInput, optFns ...func(*awsiam.Options)) (*awsiam.ListUserTagsOutput, error) {
			calls++
			if calls == 1 {
				if params.Marker != nil {
					t.Errorf("first call Marker = %v, want nil", params.Marker)
				}
				return &awsiam.ListUserTagsOutput{
					Tags:        []iamtypes.Tag{{Key: awssdk.String("team"), Value: awssdk.String("infra")}},
					IsTruncated: true,
					Marker:      awssdk.String("page-2"),
				}, nil
			}
			if awssdk.ToString(params.Marker) != "page-2" {
				t.Errorf("second call Marker = %v, want page-2", params.Marker)
			}
			return &awsiam.ListUserTagsOutput{
				Tags: []iamtypes.Tag{{Key: awssdk.String("openSeSSHIAMe-ID"), Value: awssdk.String("xyz789")}},
			}, nil
		},
	}

	tag, err := NewClient(mock).ResolveIdentityTag(context.Background(), "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tag != "openSeSSHIAMe-xyz789" {
		t.Errorf("tag = %s, want openSeSSHIAMe-xyz789", tag)
	}
	if calls != 2 {
		t.Errorf("ListUserTags called %d times, want 2", calls)
	}
}

func TestResolveIdentityTag_Missing(t *testing.T) {
	mock := &mockIAMAPI{
		listUserTagsFunc: func(ctx context.Context, params *awsiam.ListUserTagsInput, optFns ...func(*awsiam.Options)) (*awsiam.ListUserTagsOutput, error) {
			return &awsiam.ListUserTagsOutput{
				Tags: []iamtypes.Tag{{Key: awssdk.String("team"), Value: awssdk.String("infra")}},
			}, nil
		},
	}

	_, err := NewClient(mock).ResolveIdentityTag(context.Background(), "bob")
	if !errors.Is(err, ErrIdentityTagMissing) {
		t.Fatalf("error = %v, want ErrIdentityTagMissing", err)
	}
	if !strings.Contains(err.Error(), "bob") {
		t.Errorf("error should name the user: %v", err)
	}
	if !strings.Contains(err.Error(), "openSeSSHIAMe-ID") {
		t.Errorf("error should tell the operator which tag to attach: %v", err)
	}
}

func TestResolveIdentityTag_Duplicate(t *testing.T) {
	mock := &mockIAMAPI{
		listUserTagsFunc: func(ctx context.Context, params *awsiam.ListUserTagsInput, optFns ...func(*awsiam.Options)) (*awsiam.ListUserTagsOutput, error) {
			return &awsiam.ListUserTagsOutput{
				Tags: []iamtypes.Tag{
					{Key: awssdk.String("openSeSSHIAMe-ID"), Value: awssdk.String("one")},
					{Key: awssdk.String("openSeSSHIAMe-ID"), Value: awssdk.String("two")},
				},
			}, nil
		},
	}

	_, err := NewClient(mock).ResolveIdentityTag(context.Background(), "carol")
	if !errors.Is(err, ErrIdentityTagDuplicate) {
		t.Fatalf("error = %v, want ErrIdentityTagDuplicate", err)
	}
}

func TestResolveIdentityTag_APIError(t *testing.T) {
	apiErr := errors.New("AccessDenied")
	mock := &mockIAMAPI{
		listUserTagsFunc: func(ctx context.Context, params *awsiam.ListUserTagsInput, optFns ...func(*awsiam.Options)) (*awsiam.ListUserTagsOutput, error) {
			return nil, apiErr
		},
	}

	_, err := NewClient(mock).ResolveIdentityTag(context.Background(), "alice")
	if !errors.Is(err, apiErr) {
		t.Fatalf("error = %v, want wrapped AccessDenied", err)
	}
}
