package conservation

import (
	"slices"

	"github.com/exprmap/exprmap/pkg/similarity"
)

// Scorer computes the conservation score of a multi-species call. Scores
// must not decrease when more species agree or when the ranks of agreeing
// genes get closer to one another.
type Scorer interface {
	Name() string
	Score(call *similarity.MultiSpeciesCall) (float64, error)
}

// ScorerFunc adapts a function to Scorer.
type ScorerFunc func(call *similarity.MultiSpeciesCall) (float64, error)

// Name returns "custom".
func (f ScorerFunc) Name() string { return "custom" }

// Score calls f.
func (f ScorerFunc) Score(call *similarity.MultiSpeciesCall) (float64, error) { return f(call) }

// AgreementScorer scores a call as the number of species agreeing on the
// dominant call type plus the closeness of their ranks.
//
// The dominant type is the one reported by the most species, EXPRESSED on a
// tie. Closeness is 1/(1+(max-min)/max) over the best observed ranks of the
// agreeing genes, in (0.5, 1], and 1 with fewer than two ranks.
type AgreementScorer struct{}

// Name returns the scorer name
func (AgreementScorer) Name() string { return "agreement" }

// Score implements Scorer.
func (AgreementScorer) Score(call *similarity.MultiSpeciesCall) (float64, error) {
	species := make(map[similarity.SummaryCallType][]int)
	for _, c := range call.Calls() {
		t := c.CallType()
		if id := c.Gene().SpeciesID; !slices.Contains(species[t], id) {
			species[t] = append(species[t], id)
		}
	}
	dominant := similarity.Expressed
	if len(species[similarity.NotExpressed]) > len(species[similarity.Expressed]) {
		dominant = similarity.NotExpressed
	}

	var ranks []float64
	for _, c := range call.Calls() {
		if c.CallType() != dominant {
			continue
		}
		if r, ok := c.MinObservedRank(); ok {
			ranks = append(ranks, r)
		}
	}
	return float64(len(species[dominant])) + closeness(ranks), nil
}

func closeness(ranks []float64) float64 {
	if len(ranks) < 2 {
		return 1
	}
	lo, hi := slices.Min(ranks), slices.Max(ranks)
	return 1 / (1 + (hi-lo)/hi)
}
