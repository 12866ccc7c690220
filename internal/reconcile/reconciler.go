package reconcile

import (
	"context"
	"fmt"

	"vyas.io/opensesshiame/internal/aws/ec2"
)

// Order selects the sequencing of the revoke and authorize calls.
type Order string

const (
	// OrderAuthorizeFirst grants access from the new address before revoking
	// superseded ranges, so the operator is never left without ingress. When
	// the address has not changed, the existing range is kept in place and
	// no mutation happens at all.
	OrderAuthorizeFirst Order = "authorize-first"

	// OrderRevokeFirst revokes every owned range before resolving the new
	// address and authorizing. Between those calls the operator has zero
	// ingress, and a failed address lookup after the revoke locks the
	// operator out until the next successful run.
	OrderRevokeFirst Order = "revoke-first"
)

type IdentityResolver interface {
	ResolveIdentityTag(ctx context.Context, username string) (string, error)
}

type AddressResolver interface {
	CurrentAddress(ctx context.Context) (string, error)
}

type RuleStore interface {
	ListRules(ctx context.Context) ([]ec2.IngressRule, error)
	RevokeRules(ctx context.Context, rules []ec2.IngressRule) error
	AuthorizeRules(ctx context.Context, rules []ec2.IngressRule) error
}

// Reconciler replaces the ingress ranges owned by one identity with a single
// rule allowing the operator's current public address. All collaborators are
// constructed once per run and passed in; the Reconciler holds no ambient
// state.
type Reconciler struct {
	Identity IdentityResolver
	Address  AddressResolver
	Store    RuleStore

	Username string
	Port     int32
	Order    Order

	// Logf, when set, receives human-readable progress lines.
	Logf func(format string, args ...any)
}

// Result summarizes one reconciliation pass.
type Result struct {
	Tag        string
	Address    string
	Revoked    int
	Authorized bool

	// DuplicateOwnedRanges is set when more than one range carried the
	// identity tag. The invariant is at most one owned range per identity;
	// all of them are still revoked.
	DuplicateOwnedRanges bool
}

// Run executes a single reconciliation pass. Errors are returned untranslated
// for the caller to report; no step is retried.
func (r *Reconciler) Run(ctx context.Context) (Result, error) {
	switch r.Order {
	case "", OrderAuthorizeFirst:
		return r.runAuthorizeFirst(ctx)
	case OrderRevokeFirst:
		return r.runRevokeFirst(ctx)
	default:
		return Result{}, fmt.Errorf("unknown ordering policy %q", r.Order)
	}
}

func (r *Reconciler) runAuthorizeFirst(ctx context.Context) (Result, error) {
	res, owned, err := r.findOwned(ctx)
	if err != nil {
		return res, err
	}

	address, err := r.Address.CurrentAddress(ctx)
	if err != nil {
		return res, err
	}
	res.Address = address
	rule := BuildRule(address, r.Port, res.Tag)

	// If the current address is already authorized, keep that range in place
	// instead of revoking and re-adding it. Only one exact match is kept;
	// extras are revoked with the superseded ranges.
	var superseded []ec2.IngressRule
	kept := false
	for _, o := range owned {
		if !kept && sameSingleRangeRule(o, rule) {
			kept = true
			continue
		}
		superseded = append(superseded, o)
	}

	if kept {
		r.logf("ingress from %s already authorized", rule.Ranges[0].CIDR)
	} else {
		r.logf("authorizing port %d from %s for %s", r.Port, rule.Ranges[0].CIDR, res.Tag)
		switch err := r.Store.AuthorizeRules(ctx, []ec2.IngressRule{rule}); {
		case err == nil:
			res.Authorized = true
		case ec2.IsDuplicateRule(err):
			// Another run got there first; the desired range exists.
			r.logf("ingress from %s already authorized", rule.Ranges[0].CIDR)
		default:
			return res, err
		}
	}

	if err := r.revoke(ctx, superseded); err != nil {
		return res, err
	}
	res.Revoked = len(superseded)
	return res, nil
}

func (r *Reconciler) runRevokeFirst(ctx context.Context) (Result, error) {
	res, owned, err := r.findOwned(ctx)
	if err != nil {
		return res, err
	}

	if err := r.revoke(ctx, owned); err != nil {
		return res, err
	}
	res.Revoked = len(owned)

	// Past this point the operator has zero ingress until the authorize
	// lands; an address lookup failure here is the lockout window.
	address, err := r.Address.CurrentAddress(ctx)
	if err != nil {
		return res, err
	}
	res.Address = address

	rule := BuildRule(address, r.Port, res.Tag)
	r.logf("authorizing port %d from %s for %s", r.Port, rule.Ranges[0].CIDR, res.Tag)
	if err := r.Store.AuthorizeRules(ctx, []ec2.IngressRule{rule}); err != nil {
		return res, err
	}
	res.Authorized = true
	return res, nil
}

// findOwned resolves the identity tag and filters the group's current rules
// down to the ranges owned by it.
func (r *Reconciler) findOwned(ctx context.Context) (Result, []ec2.IngressRule, error) {
	var res Result

	tag, err := r.Identity.ResolveIdentityTag(ctx, r.Username)
	if err != nil {
		return res, nil, err
	}
	res.Tag = tag
	r.logf("finding existing ingress rules for %s", tag)

	rules, err := r.Store.ListRules(ctx)
	if err != nil {
		return res, nil, err
	}

	owned := OwnedRules(rules, tag)
	for _, rule := range owned {
		r.logf("existing rule: access to ports %d-%d from %s",
			rule.FromPort, rule.ToPort, rule.Ranges[0].CIDR)
	}
	if len(owned) > 1 {
		res.DuplicateOwnedRanges = true
		r.logf("anomaly: %d ranges carry %s, expected at most one", len(owned), tag)
	}
	return res, owned, nil
}

func (r *Reconciler) revoke(ctx context.Context, rules []ec2.IngressRule) error {
	err := r.Store.RevokeRules(ctx, rules)
	if err != nil && ec2.IsRuleNotFound(err) {
		r.logf("superseded ranges were already revoked")
		return nil
	}
	return err
}

func (r *Reconciler) logf(format string, args ...any) {
	if r.Logf != nil {
		r.Logf(format, args...)
	}
}

// OwnedRules returns one single-range rule for every source range whose
// description equals tag exactly. EC2 may fold several logically distinct
// ranges into one rule entry, so each match is rebuilt as a minimal copy of
// its entry carrying just the matching range; the input rules are not
// mutated and ranges tagged for other identities are never selected.
func OwnedRules(rules []ec2.IngressRule, tag string) []ec2.IngressRule {
	var owned []ec2.IngressRule
	for _, rule := range rules {
		for _, rng := range rule.Ranges {
			if rng.Description == tag {
				owned = append(owned, rule.WithRanges(rng))
			}
		}
	}
	return owned
}

// BuildRule constructs the single managed ingress rule: TCP, one port, one
// /32 source range described by the identity tag.
func BuildRule(address string, port int32, tag string) ec2.IngressRule {
	return ec2.IngressRule{
		Protocol: "tcp",
		FromPort: port,
		ToPort:   port,
		Ranges:   []ec2.SourceRange{{CIDR: address + "/32", Description: tag}},
	}
}

func sameSingleRangeRule(a, b ec2.IngressRule) bool {
	return a.Protocol == b.Protocol &&
		a.FromPort == b.FromPort &&
		a.ToPort == b.ToPort &&
		len(a.Ranges) == 1 && len(b.Ranges) == 1 &&
		a.Ranges[0].CIDR == b.Ranges[0].CIDR
}
