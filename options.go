package exprmap

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/exprmap/exprmap/pkg/conservation"
	"github.com/exprmap/exprmap/pkg/errors"
	"github.com/exprmap/exprmap/pkg/reconcile"
	"github.com/exprmap/exprmap/pkg/sources"
)

// options holds the configuration of a client
type options struct {
	sources  []sources.Option
	strategy reconcile.Strategy
	scorer   conservation.Scorer
	logger   *zerolog.Logger
	registry prometheus.Registerer
}

// Option is a function that configures a client
type Option func(*options) error

// defaults returns the default options
func defaults() *options {
	return &options{
		strategy: reconcile.NewExpressedDominatesStrategy(),
		scorer:   conservation.AgreementScorer{},
	}
}

// apply applies the given options
func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// WithSources uses p for every collaborator. Later collaborator options
// override it.
func WithSources(p sources.Provider) Option {
	return func(o *options) error {
		if p == nil {
			return errors.NewValidationError("sources", nil, "provider cannot be nil")
		}
		o.sources = append(o.sources, sources.WithProvider(p))
		return nil
	}
}

// WithTaxonomy configures the taxonomy collaborator
func WithTaxonomy(p sources.TaxonomyProvider) Option {
	return func(o *options) error {
		o.sources = append(o.sources, sources.WithTaxonomy(p))
		return nil
	}
}

// WithSimilarities configures the similarity group collaborator
func WithSimilarities(p sources.SimilarityProvider) Option {
	return func(o *options) error {
		o.sources = append(o.sources, sources.WithSimilarities(p))
		return nil
	}
}

// WithGenes configures the gene and species collaborator
func WithGenes(p sources.GeneProvider) Option {
	return func(o *options) error {
		o.sources = append(o.sources, sources.WithGenes(p))
		return nil
	}
}

// WithCalls configures the expression observation collaborator
func WithCalls(p sources.CallProvider) Option {
	return func(o *options) error {
		o.sources = append(o.sources, sources.WithCalls(p))
		return nil
	}
}

// WithOrthology configures the orthology collaborator
func WithOrthology(p sources.OrthologyProvider) Option {
	return func(o *options) error {
		o.sources = append(o.sources, sources.WithOrthology(p))
		return nil
	}
}

// WithStrategy configures how conflicting calls of a bucket are reconciled
func WithStrategy(strategy reconcile.Strategy) Option {
	return func(o *options) error {
		if strategy == nil {
			return errors.NewValidationError("strategy", nil, "strategy cannot be nil")
		}
		o.strategy = strategy
		return nil
	}
}

// WithScorer configures the conservation scoring policy
func WithScorer(scorer conservation.Scorer) Option {
	return func(o *options) error {
		if scorer == nil {
			return errors.NewValidationError("scorer", nil, "scorer cannot be nil")
		}
		o.scorer = scorer
		return nil
	}
}

// WithLogger configures the logger used when the context carries none
func WithLogger(logger *zerolog.Logger) Option {
	return func(o *options) error {
		o.logger = logger
		return nil
	}
}

// WithMetrics registers the client metrics with reg
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *options) error {
		o.registry = reg
		return nil
	}
}
