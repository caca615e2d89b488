package exprmap_test

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exprmap/exprmap"
	"github.com/exprmap/exprmap/internal/dataset"
	"github.com/exprmap/exprmap/pkg/conservation"
	"github.com/exprmap/exprmap/pkg/errors"
	"github.com/exprmap/exprmap/pkg/logging"
	"github.com/exprmap/exprmap/pkg/similarity"
)

const (
	brainGroup = "UBERON:0000955|UBERON:0001890"
	human      = 9606
	mouse      = 10090
	zebrafish  = 7955
	mammalia   = 40674
	vertebrata = 7742
)

func openStore(t *testing.T, name string) *dataset.Store {
	t.Helper()
	store, err := dataset.Load(filepath.Join("internal", "dataset", "testdata", name))
	require.NoError(t, err)
	return store
}

func newClient(t *testing.T, name string, opts ...exprmap.Option) exprmap.Client {
	t.Helper()
	logging.DisableLoggingForTest(t)
	opts = append([]exprmap.Option{exprmap.WithSources(openStore(t, name))}, opts...)
	client, err := exprmap.New(opts...)
	require.NoError(t, err)
	return client
}

type callView struct {
	gene      string
	condition string
	callType  similarity.SummaryCallType
	sources   int
}

func view(calls []*similarity.SimilarityExpressionCall) []callView {
	out := make([]callView, len(calls))
	for i, c := range calls {
		out[i] = callView{
			gene:      c.Gene().ID,
			condition: c.Condition().Key(),
			callType:  c.CallType(),
			sources:   len(c.SourceCalls()),
		}
	}
	return out
}

func TestLoadSimilarityExpressionCallsScenario(t *testing.T) {
	client := newClient(t, "scenario.yaml")

	result, err := client.LoadSimilarityExpressionCalls(context.Background(), 100, nil, nil, false)
	require.NoError(t, err)

	assert.Equal(t, []callView{
		{"g1", "anatEntity1a|anatEntity2a", similarity.Expressed, 2},
		{"g1", "anatEntity1b", similarity.Expressed, 1},
		{"g2a", "anatEntity1a|anatEntity2a", similarity.Expressed, 1},
		{"g2b", "anatEntity1b", similarity.NotExpressed, 1},
	}, view(result.Calls))
	assert.True(t, result.Metadata.Streamed)
	assert.False(t, result.Metadata.StageAware)
	assert.Equal(t, 5, result.Metadata.Stats.CallsProcessed)
	assert.Equal(t, 1, result.Metadata.Stats.ConflictsResolved)
}

func TestLoadSimilarityExpressionCallsExpandsFilter(t *testing.T) {
	client := newClient(t, "vertebrates.yaml")

	// Asking for the forebrain only brings the whole brain group in.
	result, err := client.LoadSimilarityExpressionCalls(context.Background(), mammalia, nil,
		&similarity.ConditionFilter{AnatEntityIDs: []string{"UBERON:0001890"}}, true)
	require.NoError(t, err)

	assert.Equal(t, []callView{
		{"ENSG00000118271", brainGroup + "#adult", similarity.NotExpressed, 1},
		{"ENSG00000170558", brainGroup + "#adult", similarity.Expressed, 2},
		{"ENSMUSG00000024304", brainGroup + "#adult", similarity.Expressed, 1},
		{"ENSMUSG00000024304", brainGroup + "#embryo", similarity.Expressed, 1},
	}, view(result.Calls))
	assert.True(t, result.Metadata.StageAware)
}

func TestLoadSimilarityExpressionCallsTrust(t *testing.T) {
	client := newClient(t, "vertebrates.yaml")
	liver := &similarity.ConditionFilter{AnatEntityIDs: []string{"UBERON:0002107"}}

	trusted, err := client.LoadSimilarityExpressionCalls(context.Background(), mammalia, nil, liver, true)
	require.NoError(t, err)
	assert.Empty(t, trusted.Calls)

	all, err := client.LoadSimilarityExpressionCalls(context.Background(), mammalia, nil, liver, false)
	require.NoError(t, err)
	require.Len(t, all.Calls, 2)
	for _, c := range all.Calls {
		assert.Equal(t, similarity.Expressed, c.CallType())
		assert.False(t, c.Condition().AnatSimilarity().IsTrusted())
	}
}

func TestLoadSimilarityExpressionCallsGeneFilters(t *testing.T) {
	client := newClient(t, "vertebrates.yaml")

	result, err := client.LoadSimilarityExpressionCalls(context.Background(), mammalia,
		[]similarity.GeneFilter{{SpeciesID: mouse, GeneIDs: []string{"ENSMUSG00000024304"}}}, nil, true)
	require.NoError(t, err)
	require.NotEmpty(t, result.Calls)
	for _, c := range result.Calls {
		assert.Equal(t, "ENSMUSG00000024304", c.Gene().ID)
	}
}

func TestLoadSimilarityExpressionCallsErrors(t *testing.T) {
	client := newClient(t, "vertebrates.yaml")
	ctx := context.Background()

	_, err := client.LoadSimilarityExpressionCalls(ctx, 1, nil, nil, true)
	assert.True(t, errors.IsNotFound(err), "unknown taxon: %v", err)

	_, err = client.LoadSimilarityExpressionCalls(ctx, mammalia,
		[]similarity.GeneFilter{{SpeciesID: zebrafish}}, nil, true)
	assert.True(t, errors.IsValidationError(err), "species outside taxon: %v", err)

	_, err = client.LoadSimilarityExpressionCalls(ctx, mammalia,
		[]similarity.GeneFilter{{SpeciesID: 4242}}, nil, true)
	assert.True(t, errors.IsNotFound(err), "unknown species: %v", err)

	_, err = client.LoadSimilarityExpressionCalls(ctx, mammalia,
		[]similarity.GeneFilter{{SpeciesID: human, GeneIDs: []string{"NO_SUCH_GENE"}}}, nil, true)
	var notFound *errors.NotFoundError
	require.True(t, errors.As(err, &notFound), "unknown gene: %v", err)
	assert.Contains(t, notFound.ID, "NO_SUCH_GENE")
}

func TestLoadSimilarityExpressionCallsUnmatchedStages(t *testing.T) {
	logging.DisableLoggingForTest(t)
	store, err := dataset.Parse([]byte(`
taxonomy:
  - {id: 100, name: taxonT}
  - {id: 1, name: species1, parent: 100}
species:
  - {id: 1, scientific_name: species1}
anat_entities:
  - {id: a1}
genes:
  - {id: g1, species_id: 1}
anat_similarities:
  - sources: [a1]
    summaries: [{taxon_id: 100, trusted: true, positive: true}]
calls:
  - {gene: g1, species_id: 1, anat: a1, stage: adult, type: EXPRESSED, observed: true}
  - {gene: g1, species_id: 1, anat: a1, stage: embryo, type: NOT_EXPRESSED, observed: true}
`), "no-stage-groups.yaml")
	require.NoError(t, err)
	client, err := exprmap.New(exprmap.WithSources(store))
	require.NoError(t, err)

	result, err := client.LoadSimilarityExpressionCalls(context.Background(), 100, nil,
		&similarity.ConditionFilter{DevStageIDs: []string{"adult"}}, false)
	require.NoError(t, err)
	assert.Empty(t, result.Calls, "stage filter must not be lifted")

	result, err = client.LoadSimilarityExpressionCalls(context.Background(), 100, nil, nil, false)
	require.NoError(t, err)
	require.Len(t, result.Calls, 1)
	assert.Len(t, result.Calls[0].SourceCalls(), 2)
}

func TestMissingCollaborators(t *testing.T) {
	client, err := exprmap.New(exprmap.WithTaxonomy(openStore(t, "scenario.yaml")))
	require.NoError(t, err)

	_, err = client.LoadSimilarityExpressionCalls(context.Background(), 100, nil, nil, false)
	var cfgErr *errors.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Contains(t, cfgErr.Message, "similarity, genes, calls")
}

func TestIntegrityViolation(t *testing.T) {
	store, err := dataset.Parse([]byte(`
taxonomy:
  - {id: 100, name: taxonT}
  - {id: 1, name: species1, parent: 100}
species:
  - {id: 1, scientific_name: species1}
anat_entities:
  - {id: a}
  - {id: b}
genes:
  - {id: g1, species_id: 1}
anat_similarities:
  - sources: [a, b]
    summaries: [{taxon_id: 100, trusted: true, positive: true}]
  - sources: [a]
    summaries: [{taxon_id: 100, trusted: true, positive: true}]
calls:
  - {gene: g1, species_id: 1, anat: a, type: EXPRESSED, observed: true}
`), "overlap.yaml")
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	client, err := exprmap.New(exprmap.WithSources(store), exprmap.WithMetrics(reg))
	require.NoError(t, err)

	var violations []*errors.IntegrityError
	client.OnIntegrityViolation(func(v *errors.IntegrityError) {
		violations = append(violations, v)
	})
	reconciled := 0
	client.OnCallsReconciled(func(int, []*similarity.SimilarityExpressionCall) { reconciled++ })

	_, err = client.LoadSimilarityExpressionCalls(context.Background(), 100, nil,
		&similarity.ConditionFilter{AnatEntityIDs: []string{"a"}}, false)
	require.Error(t, err)
	assert.True(t, errors.IsIntegrityError(err))

	require.Len(t, violations, 1)
	assert.Equal(t, "a", violations[0].EntityID)
	assert.Len(t, violations[0].GroupIDs, 2)
	assert.Zero(t, reconciled)

	count, err := testutil.GatherAndCount(reg, "exprmap_reconcile_integrity_violations_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestHooksAndMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	client := newClient(t, "scenario.yaml", exprmap.WithMetrics(reg))

	var mu sync.Mutex
	var taxa []int
	var sizes []int
	client.OnCallsReconciled(func(taxonID int, calls []*similarity.SimilarityExpressionCall) {
		mu.Lock()
		defer mu.Unlock()
		taxa = append(taxa, taxonID)
		sizes = append(sizes, len(calls))
	})

	_, err := client.LoadSimilarityExpressionCalls(context.Background(), 100, nil, nil, false)
	require.NoError(t, err)

	assert.Equal(t, []int{100}, taxa)
	assert.Equal(t, []int{4}, sizes)

	count, err := testutil.GatherAndCount(reg, "exprmap_reconcile_similarity_calls_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count, "one series per call type")

	count, err = testutil.GatherAndCount(reg, "exprmap_client_operation_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRequestLogging(t *testing.T) {
	tl := logging.NewTestLogger(t)
	client, err := exprmap.New(exprmap.WithSources(openStore(t, "scenario.yaml")), exprmap.WithLogger(tl.Logger))
	require.NoError(t, err)

	_, err = client.LoadSimilarityExpressionCalls(context.Background(), 100, nil, nil, false)
	require.NoError(t, err)

	tl.AssertContains(t, `"request_id"`)
	tl.AssertContains(t, `"operation":"load_similarity_calls"`)
	tl.AssertContains(t, "Reconciled 5 calls")
}

func TestLoadMultiSpeciesExprAnalysisScenario(t *testing.T) {
	client := newClient(t, "scenario.yaml")

	analysis, err := client.LoadMultiSpeciesExprAnalysis(context.Background(), []string{"g1", "g2a", "g2b", "g1", "unknown"})
	require.NoError(t, err)

	assert.Equal(t, []string{"g1", "g2a", "g2b", "unknown"}, analysis.RequestedGeneIDs())
	assert.Equal(t, []string{"unknown"}, analysis.NotFoundGeneIDs())
	assert.Len(t, analysis.Genes(), 3)

	entries := analysis.Entries()
	require.Len(t, entries, 2)

	groupA := entries[0]
	assert.Equal(t, "anatEntity1a|anatEntity2a", groupA.Condition.Key())
	assert.Equal(t, 2, groupA.Counts.Count(similarity.Expressed))
	assert.Equal(t, 0, groupA.Counts.Count(similarity.NotExpressed))
	require.Len(t, groupA.Counts.NoDataGenes(), 1)
	assert.Equal(t, "g2b", groupA.Counts.NoDataGenes()[0].ID)
	rank, ok := groupA.Counts.Rank(similarity.GeneKey{ID: "g1", SpeciesID: 1})
	require.True(t, ok)
	assert.Equal(t, 10.0, rank)

	groupB := entries[1]
	assert.Equal(t, "anatEntity1b", groupB.Condition.Key())
	assert.Equal(t, 1, groupB.Counts.Count(similarity.Expressed))
	assert.Equal(t, 1, groupB.Counts.Count(similarity.NotExpressed))
	_, ok = groupB.Counts.Rank(similarity.GeneKey{ID: "g2b", SpeciesID: 2})
	assert.False(t, ok, "unobserved call has no rank")
}

func TestLoadMultiSpeciesExprAnalysisCommonTaxon(t *testing.T) {
	client := newClient(t, "vertebrates.yaml")

	analysis, err := client.LoadMultiSpeciesExprAnalysis(context.Background(),
		[]string{"ENSG00000170558", "ENSMUSG00000024304", "ENSDARG00000018693"})
	require.NoError(t, err)

	// At the vertebrate level only the trusted brain group remains.
	entries := analysis.Entries()
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, vertebrata, e.Condition.AnatSimilarity().RequestedTaxon().ID)
	}

	adult := entries[0]
	assert.Equal(t, brainGroup+"#adult", adult.Condition.Key())
	assert.Equal(t, 3, adult.Counts.Count(similarity.Expressed))
	rank, ok := adult.Counts.Rank(similarity.GeneKey{ID: "ENSG00000170558", SpeciesID: human})
	require.True(t, ok)
	assert.Equal(t, 980.0, rank)

	embryo := entries[1]
	assert.Equal(t, brainGroup+"#embryo", embryo.Condition.Key())
	assert.Equal(t, 1, embryo.Counts.Count(similarity.Expressed))
	assert.Len(t, embryo.Counts.NoDataGenes(), 2)
}

func TestLoadMultiSpeciesExprAnalysisErrors(t *testing.T) {
	client := newClient(t, "scenario.yaml")
	ctx := context.Background()

	_, err := client.LoadMultiSpeciesExprAnalysis(ctx, nil)
	assert.True(t, errors.IsValidationError(err))

	_, err = client.LoadMultiSpeciesExprAnalysis(ctx, []string{"g1", " "})
	assert.True(t, errors.IsValidationError(err))

	tooMany := make([]string, 1001)
	for i := range tooMany {
		tooMany[i] = fmt.Sprintf("gene%d", i)
	}
	_, err = client.LoadMultiSpeciesExprAnalysis(ctx, tooMany)
	assert.True(t, errors.IsValidationError(err))

	_, err = client.LoadMultiSpeciesExprAnalysis(ctx, []string{"nope"})
	assert.True(t, errors.IsNotFound(err))
}

func TestLoadMultiSpeciesCalls(t *testing.T) {
	client := newClient(t, "scenario.yaml")

	calls, err := client.LoadMultiSpeciesCalls(context.Background(), 100, nil, nil, false)
	require.NoError(t, err)
	require.Len(t, calls, 3)

	type groupView struct {
		group     string
		condition string
		genes     []string
	}
	var got []groupView
	for _, c := range calls {
		got = append(got, groupView{c.OrthologGroupID(), c.Condition().Key(), c.GeneIDs()})
		assert.Equal(t, 100, c.TaxonID())
	}
	assert.Equal(t, []groupView{
		{"HOG:1", "anatEntity1a|anatEntity2a", []string{"g1", "g2a"}},
		{"HOG:1", "anatEntity1b", []string{"g1"}},
		{"HOG:2", "anatEntity1b", []string{"g2b"}},
	}, got)

	score, ok := calls[0].ConservationScore()
	require.True(t, ok)
	assert.InDelta(t, 2+1/1.5, score, 1e-9)

	score, ok = calls[2].ConservationScore()
	require.True(t, ok)
	assert.InDelta(t, 2.0, score, 1e-9)
}

func TestLoadMultiSpeciesCallsHierarchicalGroups(t *testing.T) {
	client := newClient(t, "vertebrates.yaml")

	calls, err := client.LoadMultiSpeciesCalls(context.Background(), vertebrata, nil, nil, true)
	require.NoError(t, err)
	require.Len(t, calls, 3)

	assert.Equal(t, "HOG:0001", calls[0].OrthologGroupID())
	assert.Equal(t, brainGroup+"#adult", calls[0].Condition().Key())
	assert.ElementsMatch(t, []int{human, mouse, zebrafish}, calls[0].SpeciesIDs())
	score, _ := calls[0].ConservationScore()
	assert.InDelta(t, 3+1/(1+520.0/1500), score, 1e-9)

	assert.Equal(t, "HOG:0002", calls[1].OrthologGroupID())
	assert.Equal(t, "HOG:0001", calls[2].OrthologGroupID())
	assert.Equal(t, brainGroup+"#embryo", calls[2].Condition().Key())
}

func TestComputeConservationScore(t *testing.T) {
	client := newClient(t, "scenario.yaml", exprmap.WithScorer(conservation.ScorerFunc(
		func(call *similarity.MultiSpeciesCall) (float64, error) {
			return float64(len(call.GeneIDs())), nil
		})))

	calls, err := client.LoadMultiSpeciesCalls(context.Background(), 100, nil, nil, false)
	require.NoError(t, err)
	require.NotEmpty(t, calls)

	score, err := client.ComputeConservationScore(calls[0])
	require.NoError(t, err)
	assert.Equal(t, 2.0, score)

	_, err = client.ComputeConservationScore(nil)
	assert.True(t, errors.IsValidationError(err))
}

func TestExpandConditionFilter(t *testing.T) {
	client := newClient(t, "vertebrates.yaml")

	expansion, err := client.ExpandConditionFilter(context.Background(), mammalia,
		&similarity.ConditionFilter{
			AnatEntityIDs: []string{"UBERON:0000955", "UBERON:9999999"},
			DevStageIDs:   []string{"HsapDv:0000087"},
		}, true)
	require.NoError(t, err)

	assert.Equal(t, []string{"UBERON:0000955", "UBERON:0001890"}, expansion.Filter.AnatEntityIDs)
	assert.Equal(t, []string{"HsapDv:0000087", "MmusDv:0000110", "UBERON:0000113"}, expansion.Filter.DevStageIDs)
	assert.Equal(t, []string{"UBERON:9999999"}, expansion.DroppedAnatEntityIDs)
	assert.False(t, expansion.Empty())
}

func TestNewOptionErrors(t *testing.T) {
	_, err := exprmap.New(exprmap.WithStrategy(nil))
	assert.True(t, errors.IsValidationError(err))

	_, err = exprmap.New(exprmap.WithScorer(nil))
	assert.True(t, errors.IsValidationError(err))

	_, err = exprmap.New(exprmap.WithSources(nil))
	assert.True(t, errors.IsValidationError(err))
}
