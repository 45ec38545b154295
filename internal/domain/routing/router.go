package routing

import (
	"errors"
	"fmt"

	"github.com/openfin/budget-approval/internal/domain/workflow"
)

// ErrNoRule is returned when no routing rule matches a (state, amount) pair.
// It signals a configuration gap, never a silent default approval.
var ErrNoRule = errors.New("no routing rule found")

// NoRuleError reports the unmatched lookup.
type NoRuleError struct {
	State       workflow.State
	AmountCents int64
}

func (e *NoRuleError) Error() string {
	return fmt.Sprintf("no routing rule for state %s and amount %d", e.State, e.AmountCents)
}

func (e *NoRuleError) Unwrap() error {
	return ErrNoRule
}

// Hop is the router's answer: which role must act next and the state the
// request moves to. NextState == StateApproved means the pipeline is exhausted
// and the acting role owns the payment leg.
type Hop struct {
	Role      string
	NextState workflow.State
}

// Terminal reports whether the hop leaves the approval pipeline.
func (h Hop) Terminal() bool {
	return h.NextState == workflow.StateApproved
}

// Router resolves the next hop for a request. It is pure and side-effect free;
// the rule table is copied at construction and never mutated.
type Router struct {
	rules []Rule
}

// NewRouter validates and captures the rule table.
func NewRouter(rules []Rule) (*Router, error) {
	if err := validateRules(rules); err != nil {
		return nil, fmt.Errorf("invalid routing table: %w", err)
	}
	owned := make([]Rule, len(rules))
	copy(owned, rules)
	return &Router{rules: owned}, nil
}

// NextHop returns the next approver role and state for the amount and current
// state. Every reachable (state, amount) pair maps to exactly one hop; an
// unmatched pair is a configuration error.
func (r *Router) NextHop(amountCents int64, current workflow.State) (Hop, error) {
	for _, rule := range r.rules {
		if rule.Stage == current && rule.matches(amountCents) {
			return Hop{Role: rule.Role, NextState: rule.NextState}, nil
		}
	}
	return Hop{}, &NoRuleError{State: current, AmountCents: amountCents}
}
