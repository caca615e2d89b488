// Package exprmap provides the main entry point for comparing gene expression
// across species. It reconciles single-species expression calls into calls
// over anatomical and developmental similarity groups, summarizes them for a
// gene set and scores their conservation across orthologous genes.
//
// The client composes collaborators from pkg/sources with the engines of
// pkg/expander, pkg/reconcile, pkg/orthology and pkg/conservation, and adds
// request scoped logging, event hooks and Prometheus metrics.
//
// Example usage:
//
//	store, err := dataset.Load("vertebrates.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	client, err := exprmap.New(
//	    exprmap.WithSources(store),
//	    exprmap.WithMetrics(prometheus.DefaultRegisterer),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Register event hooks
//	client.OnIntegrityViolation(func(v *errors.IntegrityError) {
//	    log.Printf("overlapping groups: %v", v)
//	})
//
//	// Reconcile the calls of every mammal in the brain
//	result, err := client.LoadSimilarityExpressionCalls(ctx, 40674, nil,
//	    &similarity.ConditionFilter{AnatEntityIDs: []string{"UBERON:0000955"}}, true)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, call := range result.Calls {
//	    fmt.Println(call)
//	}
package exprmap

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/exprmap/exprmap/internal/metrics"
	"github.com/exprmap/exprmap/pkg/conservation"
	"github.com/exprmap/exprmap/pkg/errors"
	"github.com/exprmap/exprmap/pkg/expander"
	"github.com/exprmap/exprmap/pkg/logging"
	"github.com/exprmap/exprmap/pkg/orthology"
	"github.com/exprmap/exprmap/pkg/reconcile"
	"github.com/exprmap/exprmap/pkg/similarity"
	"github.com/exprmap/exprmap/pkg/sources"
)

// Compile-time interface check to ensure proper implementation.
var _ Client = (*client)(nil)

// Calls loads reconciled similarity calls.
type Calls interface {
	// LoadSimilarityExpressionCalls reconciles the calls of the genes matching
	// geneFilters, in the conditions of conditionFilter widened to whole
	// similarity groups of taxonID. Empty geneFilters select every species
	// under the taxon. With onlyTrusted, untrusted anat groups are ignored.
	LoadSimilarityExpressionCalls(ctx context.Context, taxonID int, geneFilters []similarity.GeneFilter,
		conditionFilter *similarity.ConditionFilter, onlyTrusted bool) (*reconcile.Result, error)

	// LoadMultiSpeciesCalls groups the similarity calls by orthologous gene
	// group and condition, and scores each group.
	LoadMultiSpeciesCalls(ctx context.Context, taxonID int, geneFilters []similarity.GeneFilter,
		conditionFilter *similarity.ConditionFilter, onlyTrusted bool) ([]*similarity.MultiSpeciesCall, error)

	// ExpandConditionFilter returns conditionFilter widened to the similarity
	// groups of taxonID, as used to fetch observations.
	ExpandConditionFilter(ctx context.Context, taxonID int, conditionFilter *similarity.ConditionFilter,
		onlyTrusted bool) (*expander.Expansion, error)
}

// Analysis compares the expression of a gene set.
type Analysis interface {
	// LoadMultiSpeciesExprAnalysis resolves geneIDs in any species and counts,
	// per multi-species condition, the genes of each reconciled call type at
	// the least common ancestor of their species.
	LoadMultiSpeciesExprAnalysis(ctx context.Context, geneIDs []string) (*similarity.MultiSpeciesExprAnalysis, error)

	// ComputeConservationScore scores a multi-species call with the configured scorer.
	ComputeConservationScore(call *similarity.MultiSpeciesCall) (float64, error)
}

// Client compares gene expression across species.
type Client interface {
	Calls
	Analysis

	// Event hooks
	Hooks
}

// client is the Client implementation.
type client struct {
	options  *options
	sources  *sources.Set
	engine   *reconcile.Engine
	analyzer *conservation.Analyzer
	metrics  *metrics.Recorder
	hooks    *hooks
}

// New creates a new Client. Collaborators are checked by each operation, so
// a client may be built with only the ones its callers need.
func New(opts ...Option) (Client, error) {
	o, err := defaults().apply(opts...)
	if err != nil {
		return nil, err
	}

	engineOpts := []reconcile.Option{reconcile.WithStrategy(o.strategy)}
	if o.logger != nil {
		engineOpts = append(engineOpts, reconcile.WithLogger(o.logger))
	}
	engine, err := reconcile.New(engineOpts...)
	if err != nil {
		return nil, err
	}
	analyzer, err := conservation.New(conservation.WithScorer(o.scorer))
	if err != nil {
		return nil, err
	}

	var recorder *metrics.Recorder
	if o.registry != nil {
		recorder = metrics.New(o.registry)
	}

	return &client{
		options:  o,
		sources:  sources.NewSet(o.sources...),
		engine:   engine,
		analyzer: analyzer,
		metrics:  recorder,
		hooks:    newHooks(),
	}, nil
}

// OnCallsReconciled registers a callback for reconciled similarity calls.
func (c *client) OnCallsReconciled(fn CallsReconciledHook) {
	c.hooks.OnCallsReconciled(fn)
}

// OnIntegrityViolation registers a callback for integrity violations.
func (c *client) OnIntegrityViolation(fn IntegrityViolationHook) {
	c.hooks.OnIntegrityViolation(fn)
}

// ComputeConservationScore implements Analysis.
func (c *client) ComputeConservationScore(call *similarity.MultiSpeciesCall) (float64, error) {
	return c.analyzer.Score(call)
}

// request scopes ctx to one operation: it attaches a request id and the
// operation name to the logger, and returns the function recording the outcome.
func (c *client) request(ctx context.Context, operation string) (context.Context, func(err error)) {
	start := time.Now()
	if c.options.logger != nil {
		ctx = logging.WithLogger(ctx, c.options.logger)
	}
	ctx = logging.WithRequestID(ctx, uuid.NewString())
	ctx = logging.WithOperation(ctx, operation)

	logger := logging.FromContext(ctx)
	logger.Debug().Msg("Operation started")

	return ctx, func(err error) {
		status := metrics.StatusSuccess
		switch {
		case err == nil:
		case errors.IsIntegrityError(err):
			status = metrics.StatusIntegrity
			if violation, ok := c.hooks.triggerIntegrityViolation(err); ok {
				c.metrics.IntegrityViolation(violation.Resource)
			}
		default:
			status = metrics.StatusError
		}
		d := time.Since(start)
		c.metrics.ObserveOperation(operation, status, d)

		if err != nil {
			logger.Error().Err(err).Str("status", status).Dur("duration", d).Msg("Operation failed")
			return
		}
		logger.Debug().Dur("duration", d).Msg("Operation completed")
	}
}

// grouper returns the orthology grouper over the configured collaborator.
func (c *client) grouper() *orthology.Grouper {
	return orthology.NewGrouper(c.sources.Orthology)
}
