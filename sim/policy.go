package sim

import (
	"fmt"
	"math/rand"
	"sort"
)

// Policy names accepted by NewPolicy and NewScheduler.
const (
	PolicyRandom             = "random"
	PolicyShopping           = "shopping"
	PolicyRoundRobin         = "round-robin"
	PolicyWeightedRoundRobin = "weighted-round-robin"
	PolicyMinMin             = "min-min"
	PolicyMaxMin             = "max-min"
	PolicyMaxMinFastTrack    = "max-min-fast-track"
	PolicyMinMaxFastTrack    = "min-max-fast-track"
)

// ValidPolicies is the set of recognized dispatch policy names.
// Shared by experiment validation and NewPolicy to avoid duplication.
var ValidPolicies = map[string]bool{
	PolicyRandom:             true,
	PolicyShopping:           true,
	PolicyRoundRobin:         true,
	PolicyWeightedRoundRobin: true,
	PolicyMinMin:             true,
	PolicyMaxMin:             true,
	PolicyMaxMinFastTrack:    true,
	PolicyMinMaxFastTrack:    true,
}

// PolicyNames returns the valid policy names in sorted order.
func PolicyNames() []string {
	names := make([]string, 0, len(ValidPolicies))
	for n := range ValidPolicies {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// DefaultShoppingOptions is how many children a shopping scheduler samples
// when no option count is configured.
const DefaultShoppingOptions = 16

// AssignFunc hands task to child. Policies call it exactly once per task.
type AssignFunc func(task *Task, child ConsumingEntity)

// Dispatch is the input to one DispatchPolicy.Dispatch call.
type Dispatch struct {
	// Queue holds the scheduler's waiting tasks. The policy must leave it empty.
	Queue *TaskQueue
	// Children are the scheduler's children in insertion order; never empty.
	Children []ConsumingEntity
	// Rand is the scheduler's own random stream.
	Rand *rand.Rand

	assign AssignFunc
}

// Assign hands task to child.
func (d *Dispatch) Assign(task *Task, child ConsumingEntity) {
	d.assign(task, child)
}

// DispatchPolicy drains a scheduler's waiting queue into its children.
// Implementations keep only the state that must persist between steps
// (e.g. a round-robin cursor); Reset returns that state to its initial value.
type DispatchPolicy interface {
	Name() string
	Dispatch(d *Dispatch)
	Reset()
}

// PolicyConfig carries per-policy tuning knobs.
type PolicyConfig struct {
	// ShoppingOptions is the tournament size k for the shopping policy.
	// Zero means DefaultShoppingOptions.
	ShoppingOptions int
}

// PolicyOption mutates a PolicyConfig.
type PolicyOption func(*PolicyConfig)

// WithShoppingOptions sets the tournament size of a shopping policy.
func WithShoppingOptions(k int) PolicyOption {
	return func(c *PolicyConfig) { c.ShoppingOptions = k }
}

// NewPolicy creates a dispatch policy by name.
func NewPolicy(name string, opts ...PolicyOption) (DispatchPolicy, error) {
	var cfg PolicyConfig
	for _, o := range opts {
		o(&cfg)
	}
	switch name {
	case PolicyRandom:
		return &RandomPolicy{}, nil
	case PolicyShopping:
		k := cfg.ShoppingOptions
		if k == 0 {
			k = DefaultShoppingOptions
		}
		if k < 1 {
			return nil, fmt.Errorf("shopping options must be >= 1, got %d", k)
		}
		return &ShoppingPolicy{Options: k}, nil
	case PolicyRoundRobin:
		return &RoundRobinPolicy{}, nil
	case PolicyWeightedRoundRobin:
		return &WeightedRoundRobinPolicy{}, nil
	case PolicyMinMin:
		return &MinMinPolicy{}, nil
	case PolicyMaxMin:
		return &MaxMinPolicy{}, nil
	case PolicyMaxMinFastTrack:
		return &MaxMinFastTrackPolicy{}, nil
	case PolicyMinMaxFastTrack:
		return &MinMaxFastTrackPolicy{}, nil
	default:
		return nil, fmt.Errorf("unknown dispatch policy %q; valid: %v", name, PolicyNames())
	}
}
