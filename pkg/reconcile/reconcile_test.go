package reconcile_test

import (
	"context"
	"fmt"
	"iter"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/exprmap/exprmap/pkg/errors"
	"github.com/exprmap/exprmap/pkg/reconcile"
	"github.com/exprmap/exprmap/pkg/similarity"
	"github.com/exprmap/exprmap/pkg/taxonomy"
)

const taxonT = 32525

var requested = taxonomy.Taxon{ID: taxonT, ScientificName: "Theria", Level: 5}

// Helper function to create a similarity group
func createGroup(t *testing.T, ids ...string) *similarity.AnatEntitySimilarity {
	t.Helper()
	entities := make([]similarity.AnatEntity, len(ids))
	for i, id := range ids {
		entities[i] = similarity.AnatEntity{ID: id}
	}
	g, err := similarity.NewAnatEntitySimilarity(&requested, entities, nil,
		[]similarity.AnatEntitySimilarityTaxonSummary{{Taxon: requested, Trusted: true, Positive: true}})
	if err != nil {
		t.Fatalf("Failed to create group: %v", err)
	}
	return g
}

// Helper function to create a call
func createCall(gene similarity.Gene, anat string, callType similarity.SummaryCallType) similarity.ExpressionCall {
	return similarity.ExpressionCall{
		Gene:      gene,
		Condition: similarity.Condition{AnatEntityID: anat, SpeciesID: gene.SpeciesID},
		CallType:  callType,
		Quality:   similarity.Gold,
		Observed:  true,
	}
}

type bucketView struct {
	Gene      string
	Condition string
	Type      similarity.SummaryCallType
	Calls     []similarity.ExpressionCall
}

func view(calls []*similarity.SimilarityExpressionCall) []bucketView {
	out := make([]bucketView, len(calls))
	for i, c := range calls {
		out[i] = bucketView{Gene: c.Gene().ID, Condition: c.Condition().Key(), Type: c.CallType(), Calls: c.SourceCalls()}
	}
	return out
}

// scenario is two species, genes g1 (species 1), g2a and g2b (species 2),
// and groups A = {1a, 2a}, B = {1b}.
type scenario struct {
	groups []*similarity.AnatEntitySimilarity
	calls  []similarity.ExpressionCall
}

func newScenario(t *testing.T) scenario {
	g1 := similarity.Gene{ID: "g1", SpeciesID: 1}
	g2a := similarity.Gene{ID: "g2a", SpeciesID: 2}
	g2b := similarity.Gene{ID: "g2b", SpeciesID: 2}
	return scenario{
		groups: []*similarity.AnatEntitySimilarity{
			createGroup(t, "anatEntity1a", "anatEntity2a"),
			createGroup(t, "anatEntity1b"),
		},
		calls: []similarity.ExpressionCall{
			createCall(g1, "anatEntity1a", similarity.Expressed),
			createCall(g1, "anatEntity2a", similarity.NotExpressed),
			createCall(g1, "anatEntity1b", similarity.Expressed),
			createCall(g2a, "anatEntity2a", similarity.Expressed),
			createCall(g2b, "anatEntity1b", similarity.NotExpressed),
		},
	}
}

func TestReconcileScenario(t *testing.T) {
	s := newScenario(t)
	engine, err := reconcile.New()
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}

	result, err := engine.Reconcile(context.Background(), taxonT, s.calls, s.groups, nil)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}

	want := []bucketView{
		{"g1", "anatEntity1a|anatEntity2a", similarity.Expressed, s.calls[0:2]},
		{"g1", "anatEntity1b", similarity.Expressed, s.calls[2:3]},
		{"g2a", "anatEntity1a|anatEntity2a", similarity.Expressed, s.calls[3:4]},
		{"g2b", "anatEntity1b", similarity.NotExpressed, s.calls[4:5]},
	}
	if diff := cmp.Diff(want, view(result.Calls)); diff != "" {
		t.Errorf("Reconcile() mismatch (-want +got):\n%s", diff)
	}

	stats := result.Metadata.Stats
	if stats.Buckets != 4 || stats.CallsProcessed != 5 || stats.CallsSkipped != 0 || stats.Genes != 3 {
		t.Errorf("Unexpected statistics: %+v", stats)
	}
	if stats.ConflictsResolved != 1 {
		t.Errorf("Expected 1 conflict, got %d", stats.ConflictsResolved)
	}
	if result.Metadata.StageAware {
		t.Error("Expected reconciliation without stages")
	}
	if got := result.CountByType(); got[similarity.Expressed] != 3 || got[similarity.NotExpressed] != 1 {
		t.Errorf("Unexpected counts by type: %v", got)
	}
}

func TestReconcileSourceCallsShareKey(t *testing.T) {
	s := newScenario(t)
	engine, _ := reconcile.New()
	result, err := engine.Reconcile(context.Background(), taxonT, s.calls, s.groups, nil)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	for _, c := range result.Calls {
		anat := c.Condition().AnatSimilarity()
		for _, src := range c.SourceCalls() {
			if src.Gene.Key() != c.Gene().Key() {
				t.Errorf("%s holds a call of %s", c, src.Gene.Key())
			}
			if !anat.Contains(src.Condition.AnatEntityID) {
				t.Errorf("%s holds a call in %s", c, src.Condition.AnatEntityID)
			}
		}
	}
}

func TestReconcileDeterministic(t *testing.T) {
	s := newScenario(t)
	engine, _ := reconcile.New()

	first, err := engine.Reconcile(context.Background(), taxonT, s.calls, s.groups, nil)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := engine.Reconcile(context.Background(), taxonT, s.calls, s.groups, nil)
		if err != nil {
			t.Fatalf("Reconcile failed: %v", err)
		}
		if diff := cmp.Diff(view(first.Calls), view(again.Calls)); diff != "" {
			t.Fatalf("Run %d differs (-first +again):\n%s", i, diff)
		}
	}
}

func TestReconcilePrecedence(t *testing.T) {
	gene := similarity.Gene{ID: "g", SpeciesID: 1}
	groups := []*similarity.AnatEntitySimilarity{createGroup(t, "a", "b", "c")}

	tests := []struct {
		name  string
		types []similarity.SummaryCallType
		want  similarity.SummaryCallType
	}{
		{"only expressed", []similarity.SummaryCallType{similarity.Expressed, similarity.Expressed}, similarity.Expressed},
		{"only not expressed", []similarity.SummaryCallType{similarity.NotExpressed, similarity.NotExpressed}, similarity.NotExpressed},
		{"expressed last", []similarity.SummaryCallType{similarity.NotExpressed, similarity.NotExpressed, similarity.Expressed}, similarity.Expressed},
		{"expressed first", []similarity.SummaryCallType{similarity.Expressed, similarity.NotExpressed}, similarity.Expressed},
	}
	engine, _ := reconcile.New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := make([]similarity.ExpressionCall, len(tt.types))
			for i, ct := range tt.types {
				calls[i] = createCall(gene, string(rune('a'+i)), ct)
			}
			result, err := engine.Reconcile(context.Background(), taxonT, calls, groups, nil)
			if err != nil {
				t.Fatalf("Reconcile failed: %v", err)
			}
			if len(result.Calls) != 1 {
				t.Fatalf("Expected 1 call, got %d", len(result.Calls))
			}
			if got := result.Calls[0].CallType(); got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestReconcileConflictingGroups(t *testing.T) {
	s := newScenario(t)
	groups := append(s.groups, createGroup(t, "anatEntity2a", "anatEntity3a"))
	engine, _ := reconcile.New()

	result, err := engine.Reconcile(context.Background(), taxonT, s.calls, groups, nil)
	if result != nil {
		t.Error("Expected no partial result")
	}
	var integrity *errors.IntegrityError
	if !errors.As(err, &integrity) {
		t.Fatalf("Expected an integrity error, got %v", err)
	}
	if integrity.EntityID != "anatEntity2a" || len(integrity.GroupIDs) != 2 {
		t.Errorf("Unexpected integrity error: %v", integrity)
	}
}

func TestReconcileSkipsUngroupedCalls(t *testing.T) {
	gene := similarity.Gene{ID: "g", SpeciesID: 1}
	groups := []*similarity.AnatEntitySimilarity{createGroup(t, "a")}
	stage, err := similarity.NewDevStageSimilarity("adult", []string{"s1"})
	if err != nil {
		t.Fatal(err)
	}

	inStage := createCall(gene, "a", similarity.Expressed)
	inStage.Condition.DevStageID = "s1"
	otherStage := createCall(gene, "a", similarity.NotExpressed)
	otherStage.Condition.DevStageID = "s2"
	noGroup := createCall(gene, "z", similarity.Expressed)
	noGroup.Condition.DevStageID = "s1"

	engine, _ := reconcile.New()
	result, err := engine.Reconcile(context.Background(), taxonT,
		[]similarity.ExpressionCall{inStage, otherStage, noGroup}, groups, []*similarity.DevStageSimilarity{stage})
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if !result.Metadata.StageAware {
		t.Error("Expected stage-aware reconciliation")
	}
	if result.Metadata.Stats.CallsSkipped != 2 {
		t.Errorf("Expected 2 skipped calls, got %d", result.Metadata.Stats.CallsSkipped)
	}
	if len(result.Calls) != 1 || result.Calls[0].Condition().Key() != "a#adult" {
		t.Fatalf("Unexpected calls: %v", result.Calls)
	}
}

func TestReconcileInvalidCallType(t *testing.T) {
	call := createCall(similarity.Gene{ID: "g", SpeciesID: 1}, "a", "WEAK")
	engine, _ := reconcile.New()
	_, err := engine.Reconcile(context.Background(), taxonT, []similarity.ExpressionCall{call},
		[]*similarity.AnatEntitySimilarity{createGroup(t, "a")}, nil)
	if !errors.IsValidationError(err) {
		t.Errorf("Expected a validation error, got %v", err)
	}
}

func TestCustomStrategy(t *testing.T) {
	absenceWins := reconcile.NewCustomStrategy("absence-wins", "NOT_EXPRESSED wins",
		func(calls []similarity.ExpressionCall) (similarity.SummaryCallType, error) {
			for _, c := range calls {
				if c.CallType == similarity.NotExpressed {
					return similarity.NotExpressed, nil
				}
			}
			return similarity.Expressed, nil
		})
	engine, err := reconcile.New(reconcile.WithStrategy(absenceWins))
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}
	s := newScenario(t)
	result, err := engine.Reconcile(context.Background(), taxonT, s.calls, s.groups, nil)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if got := result.Calls[0].CallType(); got != similarity.NotExpressed {
		t.Errorf("Expected NOT_EXPRESSED, got %s", got)
	}
	if result.Metadata.Strategy != "absence-wins" {
		t.Errorf("Unexpected strategy name %q", result.Metadata.Strategy)
	}

	if _, err := reconcile.New(reconcile.WithStrategy(nil)); err == nil {
		t.Error("Expected an error for a nil strategy")
	}
}

func seqOf(calls []similarity.ExpressionCall) iter.Seq2[similarity.ExpressionCall, error] {
	return func(yield func(similarity.ExpressionCall, error) bool) {
		for _, c := range calls {
			if !yield(c, nil) {
				return
			}
		}
	}
}

func TestReconcileSortedMatchesBuffered(t *testing.T) {
	s := newScenario(t)
	engine, _ := reconcile.New()

	buffered, err := engine.Reconcile(context.Background(), taxonT, s.calls, s.groups, nil)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}

	var streamed []*similarity.SimilarityExpressionCall
	result, err := engine.ReconcileSorted(context.Background(), taxonT, seqOf(s.calls), s.groups, nil,
		func(c *similarity.SimilarityExpressionCall) error {
			streamed = append(streamed, c)
			return nil
		})
	if err != nil {
		t.Fatalf("ReconcileSorted failed: %v", err)
	}
	if diff := cmp.Diff(view(buffered.Calls), view(streamed)); diff != "" {
		t.Errorf("Streaming differs from buffering (-buffered +streamed):\n%s", diff)
	}
	if !result.Metadata.Streamed || len(result.Calls) != 0 {
		t.Error("Expected a streamed result without buffered calls")
	}
	if result.Metadata.Stats.Buckets != 4 {
		t.Errorf("Expected 4 buckets, got %d", result.Metadata.Stats.Buckets)
	}
}

func TestReconcileSortedFlushesPerGene(t *testing.T) {
	s := newScenario(t)
	engine, _ := reconcile.New()

	consumed := 0
	seq := func(yield func(similarity.ExpressionCall, error) bool) {
		for _, c := range s.calls {
			consumed++
			if !yield(c, nil) {
				return
			}
		}
	}
	var consumedAtEmit []int
	_, err := engine.ReconcileSorted(context.Background(), taxonT, seq, s.groups, nil,
		func(c *similarity.SimilarityExpressionCall) error {
			consumedAtEmit = append(consumedAtEmit, consumed)
			return nil
		})
	if err != nil {
		t.Fatalf("ReconcileSorted failed: %v", err)
	}
	// g1 flushed when g2a arrives, g2a when g2b arrives, g2b at the end.
	if diff := cmp.Diff([]int{4, 4, 5, 5}, consumedAtEmit); diff != "" {
		t.Errorf("Unexpected flush points (-want +got):\n%s", diff)
	}
}

func TestReconcileSortedRejectsUnsortedInput(t *testing.T) {
	s := newScenario(t)
	unsorted := append(append([]similarity.ExpressionCall{}, s.calls...), s.calls[0])
	engine, _ := reconcile.New()

	_, err := engine.ReconcileSorted(context.Background(), taxonT, seqOf(unsorted), s.groups, nil,
		func(*similarity.SimilarityExpressionCall) error { return nil })
	if !errors.IsValidationError(err) {
		t.Errorf("Expected a validation error, got %v", err)
	}
}

func TestReconcileSeqErrors(t *testing.T) {
	s := newScenario(t)
	engine, _ := reconcile.New()

	failing := func(yield func(similarity.ExpressionCall, error) bool) {
		if !yield(s.calls[0], nil) {
			return
		}
		yield(similarity.ExpressionCall{}, fmt.Errorf("connection reset"))
	}
	_, err := engine.ReconcileSeq(context.Background(), taxonT, failing, s.groups, nil)
	var resourceErr *errors.ResourceError
	if !errors.As(err, &resourceErr) {
		t.Errorf("Expected a resource error, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = engine.ReconcileSeq(ctx, taxonT, seqOf(s.calls), s.groups, nil)
	if !errors.IsCanceled(err) {
		t.Errorf("Expected a cancellation error, got %v", err)
	}
}
