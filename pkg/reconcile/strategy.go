package reconcile

import (
	"fmt"

	"github.com/exprmap/exprmap/pkg/similarity"
)

// Strategy decides the call type of a bucket of calls for one gene in one
// multi-species condition.
type Strategy interface {
	// Name returns the strategy name
	Name() string

	// Description returns a human-readable description
	Description() string

	// Resolve reconciles the call types of a non-empty bucket
	Resolve(calls []similarity.ExpressionCall) (similarity.SummaryCallType, error)
}

// baseStrategy provides common strategy functionality
type baseStrategy struct {
	name        string
	description string
}

// Name returns the strategy name
func (s *baseStrategy) Name() string {
	return s.name
}

// Description returns a human-readable description
func (s *baseStrategy) Description() string {
	return s.description
}

// ExpressedDominatesStrategy reports expression whenever any call of the
// bucket reports it. Absence recorded on one member of a similarity group
// does not contradict presence on another member.
type ExpressedDominatesStrategy struct {
	baseStrategy
}

// NewExpressedDominatesStrategy creates the default strategy.
func NewExpressedDominatesStrategy() Strategy {
	return &ExpressedDominatesStrategy{
		baseStrategy: baseStrategy{
			name:        "expressed-dominates",
			description: "EXPRESSED wins over NOT_EXPRESSED within a similarity group",
		},
	}
}

// Resolve returns EXPRESSED if any call is EXPRESSED, NOT_EXPRESSED otherwise.
func (s *ExpressedDominatesStrategy) Resolve(calls []similarity.ExpressionCall) (similarity.SummaryCallType, error) {
	if len(calls) == 0 {
		return "", fmt.Errorf("%s: empty bucket", s.name)
	}
	for _, c := range calls {
		if c.CallType == similarity.Expressed {
			return similarity.Expressed, nil
		}
	}
	return similarity.NotExpressed, nil
}

// CustomStrategy allows custom precedence logic
type CustomStrategy struct {
	baseStrategy
	resolver Resolver
}

// Resolver is a function that reconciles a bucket
type Resolver func(calls []similarity.ExpressionCall) (similarity.SummaryCallType, error)

// NewCustomStrategy creates a new custom strategy
func NewCustomStrategy(name, description string, resolver Resolver) Strategy {
	return &CustomStrategy{
		baseStrategy: baseStrategy{name: name, description: description},
		resolver:     resolver,
	}
}

// Resolve uses the custom resolver, or the default precedence without one
func (s *CustomStrategy) Resolve(calls []similarity.ExpressionCall) (similarity.SummaryCallType, error) {
	if s.resolver == nil {
		return NewExpressedDominatesStrategy().Resolve(calls)
	}
	return s.resolver(calls)
}
