package expander_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exprmap/exprmap/pkg/errors"
	"github.com/exprmap/exprmap/pkg/expander"
	"github.com/exprmap/exprmap/pkg/similarity"
	"github.com/exprmap/exprmap/pkg/taxonomy"
)

var tetrapoda = taxonomy.Taxon{ID: 32523, ScientificName: "Tetrapoda", Level: 3}

func group(t *testing.T, taxon taxonomy.Taxon, ids ...string) *similarity.AnatEntitySimilarity {
	t.Helper()
	entities := make([]similarity.AnatEntity, len(ids))
	for i, id := range ids {
		entities[i] = similarity.AnatEntity{ID: id}
	}
	g, err := similarity.NewAnatEntitySimilarity(&taxon, entities, nil,
		[]similarity.AnatEntitySimilarityTaxonSummary{{Taxon: taxon, Trusted: true, Positive: true}})
	require.NoError(t, err)
	return g
}

func stage(t *testing.T, id string, members ...string) *similarity.DevStageSimilarity {
	t.Helper()
	s, err := similarity.NewDevStageSimilarity(id, members)
	require.NoError(t, err)
	return s
}

func TestExpand(t *testing.T) {
	anatGroups := []*similarity.AnatEntitySimilarity{
		group(t, tetrapoda, "A1", "A2"),
		group(t, tetrapoda, "B1"),
		group(t, tetrapoda, "C1", "C2", "C3"),
	}
	stageGroups := []*similarity.DevStageSimilarity{
		stage(t, "embryo", "S1", "S2"),
		stage(t, "adult", "S3"),
	}

	tests := []struct {
		name        string
		base        *similarity.ConditionFilter
		wantAnat    []string
		wantStages  []string
		droppedAnat []string
		empty       bool
	}{
		{
			name:       "nil filter selects every group",
			wantAnat:   []string{"A1", "A2", "B1", "C1", "C2", "C3"},
			wantStages: []string{"S1", "S2", "S3"},
		},
		{
			name:       "one member widens to its group",
			base:       &similarity.ConditionFilter{AnatEntityIDs: []string{"A2"}, DevStageIDs: []string{"S1"}},
			wantAnat:   []string{"A1", "A2"},
			wantStages: []string{"S1", "S2"},
		},
		{
			name:        "unknown ids are dropped",
			base:        &similarity.ConditionFilter{AnatEntityIDs: []string{"C3", "Z9", "A1", "A2"}},
			wantAnat:    []string{"A1", "A2", "C1", "C2", "C3"},
			wantStages:  []string{"S1", "S2", "S3"},
			droppedAnat: []string{"Z9"},
		},
		{
			name:        "nothing left",
			base:        &similarity.ConditionFilter{AnatEntityIDs: []string{"Z9"}},
			wantStages:  []string{"S1", "S2", "S3"},
			droppedAnat: []string{"Z9"},
			empty:       true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := expander.Expand(context.Background(), tetrapoda.ID, tt.base, anatGroups, stageGroups)
			require.NoError(t, err)
			assert.Equal(t, tt.wantAnat, got.Filter.AnatEntityIDs)
			assert.Equal(t, tt.wantStages, got.Filter.DevStageIDs)
			assert.Equal(t, tt.droppedAnat, got.DroppedAnatEntityIDs)
			assert.Equal(t, tt.empty, got.Empty())
		})
	}
}

func TestExpandWithoutStageGroups(t *testing.T) {
	got, err := expander.Expand(context.Background(), tetrapoda.ID,
		&similarity.ConditionFilter{AnatEntityIDs: []string{"B1"}, DevStageIDs: []string{"S1"}},
		[]*similarity.AnatEntitySimilarity{group(t, tetrapoda, "B1")}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"B1"}, got.Filter.AnatEntityIDs)
	assert.Empty(t, got.Filter.DevStageIDs)
	assert.Equal(t, []string{"S1"}, got.DroppedDevStageIDs)
	assert.True(t, got.Empty(), "every requested stage was dropped")

	got, err = expander.Expand(context.Background(), tetrapoda.ID,
		&similarity.ConditionFilter{AnatEntityIDs: []string{"B1"}},
		[]*similarity.AnatEntitySimilarity{group(t, tetrapoda, "B1")}, nil)
	require.NoError(t, err)
	assert.Empty(t, got.Filter.DevStageIDs)
	assert.False(t, got.Empty(), "stages are not compared")
}

func TestExpandConflicts(t *testing.T) {
	anatGroups := []*similarity.AnatEntitySimilarity{
		group(t, tetrapoda, "A1", "A2"),
		group(t, tetrapoda, "A2", "A3"),
	}
	_, err := expander.Expand(context.Background(), tetrapoda.ID,
		&similarity.ConditionFilter{AnatEntityIDs: []string{"A2"}}, anatGroups, nil)
	require.Error(t, err)
	assert.True(t, errors.IsIntegrityError(err))

	_, err = expander.Expand(context.Background(), tetrapoda.ID,
		&similarity.ConditionFilter{DevStageIDs: []string{"S2"}},
		anatGroups[:1], []*similarity.DevStageSimilarity{stage(t, "a", "S1", "S2"), stage(t, "b", "S2")})
	assert.True(t, errors.IsIntegrityError(err))
}

func TestExpandRejectsForeignTaxon(t *testing.T) {
	mammalia := taxonomy.Taxon{ID: 40674, ScientificName: "Mammalia", Level: 4}
	_, err := expander.Expand(context.Background(), tetrapoda.ID, nil,
		[]*similarity.AnatEntitySimilarity{group(t, mammalia, "A1")}, nil)
	assert.True(t, errors.IsValidationError(err))
}
