// Package routing decides the next approver for a request given its amount and
// current lifecycle state. The decision is a pure lookup over an immutable rule
// table injected at construction; per-fiscal-year thresholds are configuration,
// not code.
package routing

import (
	"fmt"

	"github.com/openfin/budget-approval/internal/domain/entity"
	"github.com/openfin/budget-approval/internal/domain/workflow"
)

// bandUpperInclusive documents the boundary convention for amount bands: the
// upper bound of a band belongs to the band. An amount equal to the planning
// threshold still routes to the planning role; one cent more routes to the
// executive role.
const bandUpperInclusive = true

// Unbounded marks a band with no upper limit.
const Unbounded int64 = 0

// Rule is one row of the routing table: from Stage, an amount within
// [MinCents, MaxCents] routes to Role and moves the request to NextState.
// MaxCents == Unbounded means no upper limit.
type Rule struct {
	Stage     workflow.State
	MinCents  int64
	MaxCents  int64
	Role      string
	NextState workflow.State
}

// matches reports whether the rule applies to the amount.
func (r Rule) matches(amountCents int64) bool {
	if amountCents < r.MinCents {
		return false
	}
	if r.MaxCents == Unbounded {
		return true
	}
	if bandUpperInclusive {
		return amountCents <= r.MaxCents
	}
	return amountCents < r.MaxCents
}

// DefaultRules builds the standard pipeline: manager review first, then a
// threshold fork between financial planning and executive review, then funds
// are reserved and the finance role takes the request through payment.
func DefaultRules(planningThresholdCents int64) []Rule {
	return []Rule{
		{Stage: workflow.StateSubmitted, MinCents: 0, MaxCents: Unbounded, Role: entity.RoleManager, NextState: workflow.StatePendingManager},
		{Stage: workflow.StatePendingManager, MinCents: 0, MaxCents: planningThresholdCents, Role: entity.RolePlanning, NextState: workflow.StatePendingPlanning},
		{Stage: workflow.StatePendingManager, MinCents: planningThresholdCents + 1, MaxCents: Unbounded, Role: entity.RoleExecutive, NextState: workflow.StatePendingExecutive},
		{Stage: workflow.StatePendingPlanning, MinCents: 0, MaxCents: Unbounded, Role: entity.RoleFinance, NextState: workflow.StateApproved},
		{Stage: workflow.StatePendingExecutive, MinCents: 0, MaxCents: Unbounded, Role: entity.RoleFinance, NextState: workflow.StateApproved},
	}
}

// validateRules checks that every stage's bands start at zero, are contiguous
// and end unbounded, so the table is total over amounts.
func validateRules(rules []Rule) error {
	if len(rules) == 0 {
		return fmt.Errorf("routing table is empty")
	}

	byStage := make(map[workflow.State][]Rule)
	for _, r := range rules {
		if !r.Stage.IsValid() || !r.NextState.IsValid() {
			return fmt.Errorf("rule references unknown state: %+v", r)
		}
		if r.Role == "" {
			return fmt.Errorf("rule for stage %s has no role", r.Stage)
		}
		byStage[r.Stage] = append(byStage[r.Stage], r)
	}

	for stage, stageRules := range byStage {
		next := int64(0)
		for i, r := range stageRules {
			if r.MinCents != next {
				return fmt.Errorf("stage %s: band %d starts at %d, expected %d", stage, i, r.MinCents, next)
			}
			if r.MaxCents == Unbounded {
				if i != len(stageRules)-1 {
					return fmt.Errorf("stage %s: unbounded band %d is not last", stage, i)
				}
				next = -1
				continue
			}
			next = r.MaxCents + 1
		}
		if next != -1 {
			return fmt.Errorf("stage %s: bands do not cover all amounts", stage)
		}
	}

	return nil
}
