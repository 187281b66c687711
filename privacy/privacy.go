// Package privacy provides types and helpers for writing field
// exposure policies over projections, and deals with their evaluation
// at request time.
//
// A policy is a chain of rules evaluated against one Access, the pair
// of a projection class and the field path being read. Rules return
// Allow, Deny, or Skip; the first non-skip decision wins and an
// exhausted chain allows. Append AlwaysDenyRule to a policy to flip
// the default:
//
//	policy := privacy.Policy{
//	    privacy.DenyIfNoViewer(),
//	    privacy.HasRole("admin"),
//	    privacy.AlwaysDenyRule(),
//	}
package privacy

import (
	"context"
	"errors"
	"fmt"
	"reflect"
)

// Access is one projection field read under evaluation.
type Access struct {
	// Class is the projection class being read.
	Class reflect.Type

	// Path is the projection path being exposed, as the caller spells
	// it ("address.city").
	Path string
}

// Policy decision sentinel errors.
//
// These errors are used as return values from policy rules to indicate
// how the policy evaluation should proceed. Use errors.Is() to check
// for these values:
//
//	if errors.Is(err, privacy.Allow) { ... }
//	if errors.Is(err, privacy.Deny) { ... }
//	if errors.Is(err, privacy.Skip) { ... }
var (
	// Allow may be returned by rules to indicate that the policy
	// evaluation should terminate with an allow decision.
	Allow = errors.New("privacy: allow rule")

	// Deny may be returned by rules to indicate that the policy
	// evaluation should terminate with a deny decision.
	Deny = errors.New("privacy: deny rule")

	// Skip may be returned by rules to indicate that the policy
	// evaluation should continue to the next rule in the chain.
	// This allows rules to abstain from making a decision.
	Skip = errors.New("privacy: skip rule")
)

// Allowf returns a formatted wrapped Allow decision.
// The returned error wraps Allow and can be checked with errors.Is(err, Allow).
func Allowf(format string, a ...any) error {
	return fmt.Errorf(format+": %w", append(a, Allow)...)
}

// Denyf returns a formatted wrapped Deny decision.
// The returned error wraps Deny and can be checked with errors.Is(err, Deny).
func Denyf(format string, a ...any) error {
	return fmt.Errorf(format+": %w", append(a, Deny)...)
}

// Skipf returns a formatted wrapped Skip decision.
// The returned error wraps Skip and can be checked with errors.Is(err, Skip).
func Skipf(format string, a ...any) error {
	return fmt.Errorf(format+": %w", append(a, Skip)...)
}

// Rule decides whether one field access proceeds.
type Rule interface {
	EvalAccess(context.Context, Access) error
}

// RuleFunc type is an adapter which allows the use of ordinary
// functions as rules.
type RuleFunc func(context.Context, Access) error

// EvalAccess returns f(ctx, a).
func (f RuleFunc) EvalAccess(ctx context.Context, a Access) error {
	return f(ctx, a)
}

// Policy combines multiple rules into a single rule. Evaluation runs
// the rules in order and returns the first non-skip decision, which
// may be the Allow sentinel. An exhausted chain returns nil. Policy
// implements Rule, so policies nest.
type Policy []Rule

// EvalAccess evaluates an access against the policy chain.
func (p Policy) EvalAccess(ctx context.Context, a Access) error {
	for _, rule := range p {
		switch decision := rule.EvalAccess(ctx, a); {
		case decision == nil || errors.Is(decision, Skip):
		default:
			return decision
		}
	}
	return nil
}

var (
	_ Rule = RuleFunc(nil)
	_ Rule = Policy(nil)
)

// AlwaysAllowRule returns a rule that always returns an Allow decision.
func AlwaysAllowRule() Rule {
	return fixedDecision{Allow}
}

// AlwaysDenyRule returns a rule that always returns a Deny decision.
func AlwaysDenyRule() Rule {
	return fixedDecision{Deny}
}

// ContextRule creates a rule from a context evaluation function. The
// provided function receives the context and should return Allow,
// Deny, Skip, or nil. Returning nil is equivalent to returning Skip.
func ContextRule(eval func(context.Context) error) Rule {
	return contextDecision{eval}
}

// OnClass evaluates the given rule only for accesses of the given
// class, which may be a sample value or a reflect.Type. Other classes
// skip.
func OnClass(rule Rule, class any) Rule {
	t := classOf(class)
	return RuleFunc(func(ctx context.Context, a Access) error {
		if a.Class == t {
			return rule.EvalAccess(ctx, a)
		}
		return Skip
	})
}

// PolicyProvider is an interface for view types that declare their own
// access policy.
type PolicyProvider interface {
	Policy() Policy
}

// NewPolicies collects the policies of the given views into one
// policy. Views without a policy, and nil policies, contribute
// nothing.
func NewPolicies(views ...any) Policy {
	policies := make(Policy, 0, len(views))
	for _, v := range views {
		provider, ok := v.(PolicyProvider)
		if !ok {
			continue
		}
		if policy := provider.Policy(); policy != nil {
			policies = append(policies, policy)
		}
	}
	return policies
}

// Check evaluates the rule against one access and normalizes the
// decision: nil means the access is allowed, any other return is the
// deny or evaluation error. A decision attached to the context with
// DecisionContext short-circuits the rule.
func Check(ctx context.Context, rule Rule, a Access) error {
	if decision, ok := DecisionFromContext(ctx); ok {
		return decision
	}
	switch decision := rule.EvalAccess(ctx, a); {
	case decision == nil, errors.Is(decision, Allow), errors.Is(decision, Skip):
		return nil
	default:
		return decision
	}
}

// FilterPaths evaluates the rule for every path of the class and
// returns the allowed ones in input order. Denied paths are dropped;
// an evaluation error that is not a decision aborts.
func FilterPaths(ctx context.Context, rule Rule, class reflect.Type, paths []string) ([]string, error) {
	allowed := make([]string, 0, len(paths))
	for _, path := range paths {
		switch err := Check(ctx, rule, Access{Class: class, Path: path}); {
		case err == nil:
			allowed = append(allowed, path)
		case errors.Is(err, Deny):
		default:
			return nil, err
		}
	}
	return allowed, nil
}

type decisionCtxKey struct{}

// DecisionContext creates a new context from the given parent context
// with a policy decision attach to it.
func DecisionContext(parent context.Context, decision error) context.Context {
	if decision == nil || errors.Is(decision, Skip) {
		return parent
	}
	return context.WithValue(parent, decisionCtxKey{}, decision)
}

// DecisionFromContext retrieves the policy decision from the context.
func DecisionFromContext(ctx context.Context) (error, bool) {
	decision, ok := ctx.Value(decisionCtxKey{}).(error)
	if ok && errors.Is(decision, Allow) {
		decision = nil
	}
	return decision, ok
}

type fixedDecision struct {
	decision error
}

func (f fixedDecision) EvalAccess(context.Context, Access) error {
	return f.decision
}

type contextDecision struct {
	eval func(context.Context) error
}

func (c contextDecision) EvalAccess(ctx context.Context, _ Access) error {
	return c.eval(ctx)
}

func classOf(class any) reflect.Type {
	t, ok := class.(reflect.Type)
	if !ok {
		t = reflect.TypeOf(class)
	}
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}
