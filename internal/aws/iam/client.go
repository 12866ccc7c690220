package iam

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsiam "github.com/aws/aws-sdk-go-v2/service/iam"

	"vyas.io/opensesshiame/internal/constants"
)

// Configuration errors: neither resolves with retries, the deployment itself
// needs fixing.
var (
	ErrIdentityTagMissing   = errors.New("identity tag missing")
	ErrIdentityTagDuplicate = errors.New("identity tag duplicated")
)

type IAMAPI interface {
	ListUserTags(ctx context.Context, params *awsiam.ListUserTagsInput, optFns ...func(*awsiam.Options)) (*awsiam.ListUserTagsOutput, error)
}

type Client struct {
	api IAMAPI
}

func NewClient(api IAMAPI) *Client {
	return &Client{api: api}
}

// ResolveIdentityTag returns the description string that marks ingress
// ranges owned by username: the fixed prefix joined with the value of the
// user's openSeSSHIAMe-ID tag. Exactly one such tag must exist.
func (c *Client) ResolveIdentityTag(ctx context.Context, username string) (string, error) {
	var value string
	var found int
	var marker *string

	for {
		out, err := c.api.ListUserTags(ctx, &awsiam.ListUserTagsInput{
			UserName: aws.String(username),
			Marker:   marker,
		})
		if err != nil {
			return "", fmt.Errorf("ListUserTags: %w", err)
		}

		for _, tag := range out.Tags {
			if aws.ToString(tag.Key) == constants.IdentityTagKey {
				value = aws.ToString(tag.Value)
				found++
			}
		}

		if !out.IsTruncated {
			break
		}
		marker = out.Marker
	}

	switch {
	case found == 0:
		return "", fmt.Errorf(
			"%w: attach a tag with Key=%q and a Value unique among all openSeSSHIAMe users to IAM user %q",
			ErrIdentityTagMissing, constants.IdentityTagKey, username)
	case found > 1:
		return "", fmt.Errorf("%w: IAM user %q carries %d %q tags, expected exactly one",
			ErrIdentityTagDuplicate, username, found, constants.IdentityTagKey)
	}

	return constants.DescriptionPrefix + "-" + value, nil
}
