package ec2

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsec2 "github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/smithy-go"
)

type EC2API interface {
	DescribeSecurityGroups(ctx context.Context, params *awsec2.DescribeSecurityGroupsInput, optFns ...func(*awsec2.Options)) (*awsec2.DescribeSecurityGroupsOutput, error)
	RevokeSecurityGroupIngress(ctx context.Context, params *awsec2.RevokeSecurityGroupIngressInput, optFns ...func(*awsec2.Options)) (*awsec2.RevokeSecurityGroupIngressOutput, error)
	AuthorizeSecurityGroupIngress(ctx context.Context, params *awsec2.AuthorizeSecurityGroupIngressInput, optFns ...func(*awsec2.Options)) (*awsec2.AuthorizeSecurityGroupIngressOutput, error)
}

// GroupLookupError reports a security-group lookup that did not resolve to
// exactly one group. This is a deployment misconfiguration, never transient.
type GroupLookupError struct {
	GroupID string
	Count   int
}

func (e *GroupLookupError) Error() string {
	return fmt.Sprintf("security group %s: expected exactly one match, got %d", e.GroupID, e.Count)
}

// Client wraps the EC2 ingress-rule operations for a single security group
// fixed at construction time.
type Client struct {
	api     EC2API
	groupID string
}

func NewClient(api EC2API, groupID string) *Client {
	return &Client{api: api, groupID: groupID}
}

// ListRules returns the group's current ingress rules, in the order the API
// reports them.
func (c *Client) ListRules(ctx context.Context) ([]IngressRule, error) {
	out, err := c.api.DescribeSecurityGroups(ctx, &awsec2.DescribeSecurityGroupsInput{
		GroupIds: []string{c.groupID},
	})
	if err != nil {
		return nil, fmt.Errorf("DescribeSecurityGroups: %w", err)
	}
	if len(out.SecurityGroups) != 1 {
		return nil, &GroupLookupError{GroupID: c.groupID, Count: len(out.SecurityGroups)}
	}

	var rules []IngressRule
	for _, perm := range out.SecurityGroups[0].IpPermissions {
		rules = append(rules, fromIPPermission(perm))
	}
	return rules, nil
}

// RevokeRules removes the given rules from the group in one batch call.
// No-op on empty input.
func (c *Client) RevokeRules(ctx context.Context, rules []IngressRule) error {
	if len(rules) == 0 {
		return nil
	}

	out, err := c.api.RevokeSecurityGroupIngress(ctx, &awsec2.RevokeSecurityGroupIngressInput{
		GroupId:       aws.String(c.groupID),
		IpPermissions: toIPPermissions(rules),
	})
	if err != nil {
		return fmt.Errorf("RevokeSecurityGroupIngress: %w", err)
	}
	if !aws.ToBool(out.Return) || len(out.UnknownIpPermissions) > 0 {
		return fmt.Errorf("RevokeSecurityGroupIngress: %d of %d rules not matched by %s",
			len(out.UnknownIpPermissions), len(rules), c.groupID)
	}
	return nil
}

// AuthorizeRules adds the given rules to the group in one batch call.
// No-op on empty input.
func (c *Client) AuthorizeRules(ctx context.Context, rules []IngressRule) error {
	if len(rules) == 0 {
		return nil
	}

	out, err := c.api.AuthorizeSecurityGroupIngress(ctx, &awsec2.AuthorizeSecurityGroupIngressInput{
		GroupId:       aws.String(c.groupID),
		IpPermissions: toIPPermissions(rules),
	})
	if err != nil {
		return fmt.Errorf("AuthorizeSecurityGroupIngress: %w", err)
	}
	if !aws.ToBool(out.Return) {
		return fmt.Errorf("AuthorizeSecurityGroupIngress: %s reported failure without error", c.groupID)
	}
	return nil
}

// IsDuplicateRule reports whether err is EC2 rejecting an authorize because
// an identical rule already exists.
func IsDuplicateRule(err error) bool {
	return hasAPIErrorCode(err, "InvalidPermission.Duplicate")
}

// IsRuleNotFound reports whether err is EC2 rejecting a revoke because the
// rule is already gone.
func IsRuleNotFound(err error) bool {
	return hasAPIErrorCode(err, "InvalidPermission.NotFound")
}

func hasAPIErrorCode(err error, code string) bool {
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == code
}

func fromIPPermission(perm types.IpPermission) IngressRule {
	rule := IngressRule{
		Protocol: aws.ToString(perm.IpProtocol),
		FromPort: aws.ToInt32(perm.FromPort),
		ToPort:   aws.ToInt32(perm.ToPort),
	}
	for _, ipRange := range perm.IpRanges {
		rule.Ranges = append(rule.Ranges, SourceRange{
			CIDR:        aws.ToString(ipRange.CidrIp),
			Description: aws.ToString(ipRange.Description),
		})
	}
	return rule
}

func toIPPermissions(rules []IngressRule) []types.IpPermission {
	perms := make([]types.IpPermission, 0, len(rules))
	for _, rule := range rules {
		perm := types.IpPermission{
			IpProtocol: aws.String(rule.Protocol),
			FromPort:   aws.Int32(rule.FromPort),
			ToPort:     aws.Int32(rule.ToPort),
		}
		for _, r := range rule.Ranges {
			perm.IpRanges = append(perm.IpRanges, types.IpRange{
				CidrIp:      aws.String(r.CIDR),
				Description: aws.String(r.Description),
			})
		}
		perms = append(perms, perm)
	}
	return perms
}
