package reconcile

import (
	"fmt"
	"time"

	"github.com/exprmap/exprmap/pkg/similarity"
)

// Result represents the outcome of a reconciliation
type Result struct {
	// Calls holds one reconciled call per (gene, condition), in the order the
	// keys were first seen. Empty when calls were streamed to a callback.
	Calls []*similarity.SimilarityExpressionCall

	// Metadata about the reconciliation
	Metadata ResultMetadata
}

// ResultMetadata contains metadata about the reconciliation process
type ResultMetadata struct {
	TaxonID    int
	Strategy   string
	StageAware bool
	Streamed   bool

	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration

	Stats ResultStatistics
}

// ResultStatistics contains statistics about the reconciliation
type ResultStatistics struct {
	CallsProcessed int
	// Calls whose anat entity or stage is in no similarity group
	CallsSkipped int
	Genes        int
	Buckets      int
	// Buckets mixing EXPRESSED and NOT_EXPRESSED calls
	ConflictsResolved int
}

// Summary returns a human-readable summary of the result
func (r *Result) Summary() string {
	s := r.Metadata.Stats
	return fmt.Sprintf("Reconciled %d calls of %d genes into %d similarity calls (%d skipped, %d conflicts resolved by %s)",
		s.CallsProcessed-s.CallsSkipped, s.Genes, s.Buckets, s.CallsSkipped, s.ConflictsResolved, r.Metadata.Strategy)
}

// CountByType returns the number of reconciled calls per call type.
func (r *Result) CountByType() map[similarity.SummaryCallType]int {
	counts := make(map[similarity.SummaryCallType]int, len(similarity.SummaryCallTypes))
	for _, c := range r.Calls {
		counts[c.CallType()]++
	}
	return counts
}
