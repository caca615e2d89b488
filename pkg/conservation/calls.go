package conservation

import (
	"context"

	"github.com/exprmap/exprmap/pkg/logging"
	"github.com/exprmap/exprmap/pkg/orthology"
	"github.com/exprmap/exprmap/pkg/similarity"
)

// BuildMultiSpeciesCalls groups similarity calls by orthologous group and
// condition, in the order the pairs are first seen, and scores every group.
// Calls of genes in no orthologous group are left out.
func (a *Analyzer) BuildMultiSpeciesCalls(ctx context.Context, grouping *orthology.Grouping,
	calls []*similarity.SimilarityExpressionCall) ([]*similarity.MultiSpeciesCall, error) {
	type key struct {
		group     string
		condition string
	}
	type pending struct {
		group     string
		condition *similarity.MultiSpeciesCondition
		calls     []*similarity.SimilarityExpressionCall
	}

	logger := logging.FromContext(ctx)
	var order []*pending
	index := make(map[key]*pending)
	for _, c := range calls {
		group, ok := grouping.GroupOf(c.Gene().Key())
		if !ok {
			logger.Debug().Str("gene_id", c.Gene().ID).Msg("Gene in no orthologous group, call left out")
			continue
		}
		k := key{group: group, condition: c.Condition().Key()}
		p, ok := index[k]
		if !ok {
			p = &pending{group: group, condition: c.Condition()}
			index[k] = p
			order = append(order, p)
		}
		p.calls = append(p.calls, c)
	}

	out := make([]*similarity.MultiSpeciesCall, 0, len(order))
	for _, p := range order {
		call, err := similarity.NewMultiSpeciesCall(p.condition, grouping.TaxonID(), p.group, p.calls)
		if err != nil {
			return nil, err
		}
		score, err := a.Score(call)
		if err != nil {
			return nil, err
		}
		out = append(out, call.WithConservationScore(score))
	}
	return out, nil
}
