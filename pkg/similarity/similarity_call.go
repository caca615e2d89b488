package similarity

import (
	"fmt"
	"slices"

	"github.com/exprmap/exprmap/pkg/errors"
)

// SimilarityExpressionCall holds all the evidence for one gene in one
// multi-species condition, reconciled into a single call type.
type SimilarityExpressionCall struct {
	gene      Gene
	condition *MultiSpeciesCondition
	calls     []ExpressionCall
	callType  SummaryCallType
}

// NewSimilarityExpressionCall validates and builds a reconciled call.
// Every source call must belong to gene and be covered by condition;
// duplicate source calls are dropped, keeping the first occurrence.
func NewSimilarityExpressionCall(gene Gene, condition *MultiSpeciesCondition, calls []ExpressionCall,
	callType SummaryCallType) (*SimilarityExpressionCall, error) {
	if condition == nil {
		return nil, errors.NewValidationError("condition", nil, "multi-species condition is required")
	}
	if !callType.Valid() {
		return nil, errors.NewValidationError("callType", callType, fmt.Sprintf("unknown call type %q", callType))
	}
	if len(calls) == 0 {
		return nil, errors.NewValidationError("sourceCalls", nil, "at least one source call is required")
	}

	seen := make(map[ExpressionCall]bool, len(calls))
	unique := make([]ExpressionCall, 0, len(calls))
	for _, c := range calls {
		if c.Gene.Key() != gene.Key() {
			return nil, errors.NewValidationError("sourceCalls", c.Gene.Key().String(),
				fmt.Sprintf("call for gene %s cannot support gene %s", c.Gene.Key(), gene.Key()))
		}
		if !condition.Covers(c.Condition) {
			return nil, errors.NewValidationError("sourceCalls", c.Condition.AnatEntityID,
				fmt.Sprintf("condition %s/%s is not covered by %s", c.Condition.AnatEntityID, c.Condition.DevStageID, condition.Key()))
		}
		if seen[c] {
			continue
		}
		seen[c] = true
		unique = append(unique, c)
	}

	return &SimilarityExpressionCall{gene: gene, condition: condition, calls: unique, callType: callType}, nil
}

// Gene returns the gene the call is about.
func (c *SimilarityExpressionCall) Gene() Gene {
	return c.gene
}

// Condition returns the multi-species condition.
func (c *SimilarityExpressionCall) Condition() *MultiSpeciesCondition {
	return c.condition
}

// SourceCalls returns the contributing calls in input order.
func (c *SimilarityExpressionCall) SourceCalls() []ExpressionCall {
	return slices.Clone(c.calls)
}

// CallType returns the reconciled call type.
func (c *SimilarityExpressionCall) CallType() SummaryCallType {
	return c.callType
}

// MinObservedRank returns the best rank among the observed, ranked source
// calls. The boolean is false when no such call exists.
func (c *SimilarityExpressionCall) MinObservedRank() (float64, bool) {
	best, found := 0.0, false
	for _, call := range c.calls {
		if !call.Observed || !call.Ranked() {
			continue
		}
		if !found || call.Rank < best {
			best, found = call.Rank, true
		}
	}
	return best, found
}

// HasObservedData reports whether at least one source call is observed.
func (c *SimilarityExpressionCall) HasObservedData() bool {
	return slices.ContainsFunc(c.calls, func(call ExpressionCall) bool { return call.Observed })
}

// String returns a short description of the call
func (c *SimilarityExpressionCall) String() string {
	return fmt.Sprintf("%s in %s: %s (%d calls)", c.gene.Key(), c.condition.Key(), c.callType, len(c.calls))
}
