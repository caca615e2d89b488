package table_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exprmap/exprmap/internal/cmd/table"
	"github.com/exprmap/exprmap/pkg/expander"
	"github.com/exprmap/exprmap/pkg/similarity"
	"github.com/exprmap/exprmap/pkg/taxonomy"
)

func brainCall(t *testing.T) *similarity.SimilarityExpressionCall {
	t.Helper()
	taxon := taxonomy.Taxon{ID: 40674, ScientificName: "Mammalia", Level: 4}
	anat, err := similarity.NewAnatEntitySimilarity(&taxon,
		[]similarity.AnatEntity{{ID: "UBERON:0001890"}, {ID: "UBERON:0000955"}}, nil,
		[]similarity.AnatEntitySimilarityTaxonSummary{{Taxon: taxon, Trusted: true, Positive: true}})
	require.NoError(t, err)
	stage, err := similarity.NewDevStageSimilarity("adult", []string{"HsapDv:0000087"})
	require.NoError(t, err)
	cond, err := similarity.NewMultiSpeciesCondition(anat, stage)
	require.NoError(t, err)

	gene := similarity.Gene{ID: "ENSG00000170558", Name: "CDH2", SpeciesID: 9606}
	call, err := similarity.NewSimilarityExpressionCall(gene, cond, []similarity.ExpressionCall{{
		Gene:      gene,
		Condition: similarity.Condition{AnatEntityID: "UBERON:0000955", DevStageID: "HsapDv:0000087", SpeciesID: 9606},
		CallType:  similarity.Expressed,
		Observed:  true,
		Rank:      980.5,
	}}, similarity.Expressed)
	require.NoError(t, err)
	return call
}

func TestCallsToTableData(t *testing.T) {
	call := brainCall(t)

	data := table.CallsToTableData([]*similarity.SimilarityExpressionCall{call}, false)
	assert.Equal(t, []string{"Gene", "Species", "Anat Entities", "Stage Group", "Call Type"}, data.Headers)
	assert.Equal(t, [][]string{{"CDH2 (ENSG00000170558)", "9606", "UBERON:0000955, UBERON:0001890", "adult", "Expressed"}}, data.Rows)

	wide := table.CallsToTableData([]*similarity.SimilarityExpressionCall{call}, true)
	require.Len(t, wide.Rows, 1)
	assert.Equal(t, []string{"1", "980.5", "true"}, wide.Rows[0][5:])
	assert.Len(t, wide.ColumnAlignment, len(wide.Headers))
}

func TestCallTypeLabel(t *testing.T) {
	assert.Equal(t, "Expressed", table.CallTypeLabel(similarity.Expressed))
	assert.Equal(t, "Not Expressed", table.CallTypeLabel(similarity.NotExpressed))
}

func TestExpansionToTableData(t *testing.T) {
	data := table.ExpansionToTableData(&expander.Expansion{
		Filter:               &similarity.ConditionFilter{AnatEntityIDs: []string{"a", "b"}},
		DroppedAnatEntityIDs: []string{"x"},
	})
	assert.Equal(t, [][]string{
		{"anat entities", "a, b", "x"},
		{"dev stages", "-", "-"},
	}, data.Rows)
}

func TestGeneLabel(t *testing.T) {
	assert.Equal(t, "g1", table.GeneLabel(similarity.Gene{ID: "g1"}))
	assert.Equal(t, "TTR (ENSG00000118271)", table.GeneLabel(similarity.Gene{ID: "ENSG00000118271", Name: "TTR"}))
}
