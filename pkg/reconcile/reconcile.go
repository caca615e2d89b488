// Package reconcile partitions single-species expression calls into buckets
// of one gene in one multi-species condition and reconciles each bucket into
// a single SimilarityExpressionCall.
//
// Example usage:
//
//	engine, err := reconcile.New()
//	if err != nil {
//	    return err
//	}
//	result, err := engine.Reconcile(ctx, taxonID, calls, anatGroups, stageGroups)
//	if errors.IsIntegrityError(err) {
//	    // the similarity groups overlap for this taxon
//	}
package reconcile

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"time"

	"github.com/rs/zerolog"

	"github.com/exprmap/exprmap/pkg/errors"
	"github.com/exprmap/exprmap/pkg/logging"
	"github.com/exprmap/exprmap/pkg/similarity"
)

// Engine reconciles expression calls. It holds no per-request state and
// can be shared between goroutines.
type Engine struct {
	strategy Strategy
	logger   *zerolog.Logger
}

// Option configures an Engine
type Option func(*Engine) error

// New creates a new Engine with options
func New(opts ...Option) (*Engine, error) {
	e := &Engine{strategy: NewExpressedDominatesStrategy()}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// WithStrategy sets the precedence strategy
func WithStrategy(strategy Strategy) Option {
	return func(e *Engine) error {
		if strategy == nil {
			return errors.NewValidationError("strategy", nil, "strategy cannot be nil")
		}
		e.strategy = strategy
		return nil
	}
}

// WithLogger sets the logger used instead of the one carried by the context
func WithLogger(logger *zerolog.Logger) Option {
	return func(e *Engine) error {
		e.logger = logger
		return nil
	}
}

// Strategy returns the precedence strategy.
func (e *Engine) Strategy() Strategy {
	return e.strategy
}

// Reconcile buffers every call and returns the reconciled calls in the order
// their (gene, condition) key was first seen. Reconciliation is stage-aware
// when stageGroups is not empty. Calls outside of any group are skipped; an
// entity found in several groups aborts with an IntegrityError.
func (e *Engine) Reconcile(ctx context.Context, taxonID int, calls []similarity.ExpressionCall,
	anatGroups []*similarity.AnatEntitySimilarity, stageGroups []*similarity.DevStageSimilarity) (*Result, error) {
	return e.ReconcileSeq(ctx, taxonID, sliceSeq(calls), anatGroups, stageGroups)
}

// ReconcileSeq is Reconcile over a lazily produced sequence with no ordering
// guarantee. The whole sequence is consumed before any call is returned.
func (e *Engine) ReconcileSeq(ctx context.Context, taxonID int, seq iter.Seq2[similarity.ExpressionCall, error],
	anatGroups []*similarity.AnatEntitySimilarity, stageGroups []*similarity.DevStageSimilarity) (*Result, error) {
	var out []*similarity.SimilarityExpressionCall
	result, err := e.run(ctx, taxonID, seq, anatGroups, stageGroups, false, func(c *similarity.SimilarityExpressionCall) error {
		out = append(out, c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	result.Calls = out
	return result, nil
}

// ReconcileSorted consumes a sequence yielding the calls of each gene
// contiguously and passes the reconciled calls of a gene to emit as soon as
// the next gene starts. A gene showing up again after its calls were
// flushed is a validation error.
//
// Calls already emitted stay emitted when a later gene fails.
func (e *Engine) ReconcileSorted(ctx context.Context, taxonID int, seq iter.Seq2[similarity.ExpressionCall, error],
	anatGroups []*similarity.AnatEntitySimilarity, stageGroups []*similarity.DevStageSimilarity,
	emit func(*similarity.SimilarityExpressionCall) error) (*Result, error) {
	if emit == nil {
		return nil, errors.NewValidationError("emit", nil, "emit callback is required")
	}
	result, err := e.run(ctx, taxonID, seq, anatGroups, stageGroups, true, emit)
	if err != nil {
		return nil, err
	}
	result.Metadata.Streamed = true
	return result, nil
}

func (e *Engine) run(ctx context.Context, taxonID int, seq iter.Seq2[similarity.ExpressionCall, error],
	anatGroups []*similarity.AnatEntitySimilarity, stageGroups []*similarity.DevStageSimilarity,
	flushPerGene bool, emit func(*similarity.SimilarityExpressionCall) error) (*Result, error) {
	start := time.Now()
	logger := e.logger
	if logger == nil {
		logger = logging.FromContext(ctx)
	}

	resolver, err := newConditionResolver(taxonID, anatGroups, stageGroups)
	if err != nil {
		return nil, err
	}
	acc := newAccumulator(e.strategy)
	stats := ResultStatistics{}

	flush := func() error {
		flushed, err := acc.flush()
		if err != nil {
			return err
		}
		for _, b := range flushed {
			stats.Buckets++
			if b.mixed {
				stats.ConflictsResolved++
			}
			if err := emit(b.call); err != nil {
				return err
			}
		}
		return nil
	}

	var current similarity.GeneKey
	started := false
	done := make(map[similarity.GeneKey]bool)
	seen := make(map[similarity.GeneKey]bool)

	for call, err := range seq {
		if err != nil {
			return nil, errors.WrapResource("fetch", "expression calls", "", err)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w: %w", errors.ErrCanceled, ctxErr)
		}
		if !call.CallType.Valid() {
			return nil, errors.NewValidationError("callType", call.CallType,
				fmt.Sprintf("call of gene %s has unknown type %q", call.Gene.Key(), call.CallType))
		}
		stats.CallsProcessed++

		key := call.Gene.Key()
		if !seen[key] {
			seen[key] = true
			stats.Genes++
		}
		if flushPerGene && (!started || key != current) {
			if done[key] {
				return nil, errors.NewValidationError("calls", key.String(),
					fmt.Sprintf("calls of gene %s are not contiguous", key))
			}
			if started {
				if err := flush(); err != nil {
					return nil, err
				}
				done[current] = true
			}
			current, started = key, true
		}

		cond, err := resolver.resolve(call.Condition)
		if err != nil {
			return nil, err
		}
		if cond == nil {
			stats.CallsSkipped++
			logger.Debug().
				Str("gene_id", call.Gene.ID).
				Str("anat_entity_id", call.Condition.AnatEntityID).
				Str("dev_stage_id", call.Condition.DevStageID).
				Int("taxon_id", taxonID).
				Msg("Call outside of any similarity group, skipped")
			continue
		}
		acc.add(call, cond)
	}
	if err := flush(); err != nil {
		return nil, err
	}

	end := time.Now()
	result := &Result{
		Metadata: ResultMetadata{
			TaxonID:    taxonID,
			Strategy:   e.strategy.Name(),
			StageAware: resolver.stageAware(),
			StartTime:  start,
			EndTime:    end,
			Duration:   end.Sub(start),
			Stats:      stats,
		},
	}
	logger.Debug().
		Int("taxon_id", taxonID).
		Int("calls", stats.CallsProcessed).
		Int("skipped", stats.CallsSkipped).
		Int("buckets", stats.Buckets).
		Dur("duration", result.Metadata.Duration).
		Msg("Reconciliation completed")
	return result, nil
}

func sliceSeq(calls []similarity.ExpressionCall) iter.Seq2[similarity.ExpressionCall, error] {
	return func(yield func(similarity.ExpressionCall, error) bool) {
		for _, c := range slices.Clone(calls) {
			if !yield(c, nil) {
				return
			}
		}
	}
}
