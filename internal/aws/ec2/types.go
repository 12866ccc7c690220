package ec2

// SourceRange is one CIDR block allowed by an ingress rule. The description
// doubles as the ownership marker: a range whose description equals an
// operator's identity tag is managed by that operator's openSeSSHIAMe runs.
type SourceRange struct {
	CIDR        string
	Description string
}

// IngressRule is one inbound permission entry of a security group. EC2 may
// merge several logically distinct ranges into a single entry differentiated
// only by their descriptions, so ownership is tracked per range, not per
// rule.
type IngressRule struct {
	Protocol string
	FromPort int32
	ToPort   int32
	Ranges   []SourceRange
}

// WithRanges returns a copy of the rule with its range list replaced,
// leaving the receiver untouched. Used to rebuild minimal single-range rules
// from a multi-range entry.
func (r IngressRule) WithRanges(ranges ...SourceRange) IngressRule {
	r.Ranges = ranges
	return r
}
