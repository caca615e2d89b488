// Package conservation aggregates reconciled calls of a gene set into
// per-condition counts and scores how consistently expression is observed
// across species.
package conservation

import (
	"context"
	"fmt"

	"github.com/exprmap/exprmap/pkg/errors"
	"github.com/exprmap/exprmap/pkg/logging"
	"github.com/exprmap/exprmap/pkg/similarity"
)

// Analyzer builds multi-species analyses and scores multi-species calls.
type Analyzer struct {
	scorer Scorer
}

// Option configures an Analyzer
type Option func(*Analyzer) error

// New creates an Analyzer using AgreementScorer unless configured otherwise.
func New(opts ...Option) (*Analyzer, error) {
	a := &Analyzer{scorer: AgreementScorer{}}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// WithScorer sets the conservation scoring policy
func WithScorer(scorer Scorer) Option {
	return func(a *Analyzer) error {
		if scorer == nil {
			return errors.NewValidationError("scorer", nil, "scorer cannot be nil")
		}
		a.scorer = scorer
		return nil
	}
}

// Scorer returns the scoring policy.
func (a *Analyzer) Scorer() Scorer {
	return a.scorer
}

type conditionAcc struct {
	condition *similarity.MultiSpeciesCondition
	byType    map[similarity.SummaryCallType][]similarity.Gene
	withData  map[similarity.GeneKey]bool
	ranks     map[similarity.GeneKey]float64
	observed  bool
}

// Analyze groups calls by condition and counts, for each condition, the genes
// per reconciled call type, the genes without data and the best observed rank
// of each gene. Conditions where no call is backed by observed data are
// left out. Every call must be about one of genes.
func (a *Analyzer) Analyze(ctx context.Context, requestedGeneIDs, notFoundGeneIDs []string, genes []similarity.Gene,
	calls []*similarity.SimilarityExpressionCall) (*similarity.MultiSpeciesExprAnalysis, error) {
	known := make(map[similarity.GeneKey]bool, len(genes))
	for _, g := range genes {
		known[g.Key()] = true
	}

	var order []*conditionAcc
	byKey := make(map[string]*conditionAcc)
	for _, call := range calls {
		if call == nil {
			return nil, errors.NewValidationError("calls", nil, "nil similarity call")
		}
		gene := call.Gene()
		if !known[gene.Key()] {
			return nil, errors.NewValidationError("calls", gene.Key().String(), "call for a gene outside of the compared set")
		}
		key := call.Condition().Key()
		acc, ok := byKey[key]
		if !ok {
			acc = &conditionAcc{
				condition: call.Condition(),
				byType:    make(map[similarity.SummaryCallType][]similarity.Gene),
				withData:  make(map[similarity.GeneKey]bool),
				ranks:     make(map[similarity.GeneKey]float64),
			}
			byKey[key] = acc
			order = append(order, acc)
		}
		if acc.withData[gene.Key()] {
			return nil, errors.NewValidationError("calls", gene.Key().String(),
				fmt.Sprintf("several similarity calls for gene %s in %s", gene.Key(), key))
		}
		acc.withData[gene.Key()] = true
		acc.byType[call.CallType()] = append(acc.byType[call.CallType()], gene)
		if rank, ok := call.MinObservedRank(); ok {
			acc.ranks[gene.Key()] = rank
		}
		if call.HasObservedData() {
			acc.observed = true
		}
	}

	logger := logging.FromContext(ctx)
	entries := make([]similarity.ConditionCounts, 0, len(order))
	for _, acc := range order {
		if !acc.observed {
			logger.Debug().Str("condition", acc.condition.Key()).Msg("Condition without observed data, dropped")
			continue
		}
		var noData []similarity.Gene
		for _, g := range genes {
			if !acc.withData[g.Key()] {
				noData = append(noData, g)
			}
		}
		counts, err := similarity.NewMultiGeneExprCounts(acc.byType, noData, acc.ranks)
		if err != nil {
			return nil, err
		}
		entries = append(entries, similarity.ConditionCounts{Condition: acc.condition, Counts: counts})
	}

	return similarity.NewMultiSpeciesExprAnalysis(requestedGeneIDs, notFoundGeneIDs, genes, entries)
}

// Score computes the conservation score of a call with the configured scorer.
func (a *Analyzer) Score(call *similarity.MultiSpeciesCall) (float64, error) {
	if call == nil {
		return 0, errors.NewValidationError("call", nil, "multi-species call is required")
	}
	return a.scorer.Score(call)
}
