package reconcile

import (
	"github.com/exprmap/exprmap/pkg/similarity"
)

// conditionResolver maps single-species conditions to multi-species ones,
// reusing one condition value per group combination.
type conditionResolver struct {
	anat       *similarity.AnatGroupIndex
	stage      *similarity.StageGroupIndex
	conditions map[string]*similarity.MultiSpeciesCondition
}

func newConditionResolver(taxonID int, anatGroups []*similarity.AnatEntitySimilarity,
	stageGroups []*similarity.DevStageSimilarity) (*conditionResolver, error) {
	anat, err := similarity.NewAnatGroupIndex(taxonID, anatGroups)
	if err != nil {
		return nil, err
	}
	stage, err := similarity.NewStageGroupIndex(taxonID, stageGroups)
	if err != nil {
		return nil, err
	}
	return &conditionResolver{anat: anat, stage: stage, conditions: make(map[string]*similarity.MultiSpeciesCondition)}, nil
}

func (r *conditionResolver) stageAware() bool {
	return r.stage.Len() > 0
}

// resolve returns nil when the condition falls in no group on some axis.
func (r *conditionResolver) resolve(cond similarity.Condition) (*similarity.MultiSpeciesCondition, error) {
	anat, err := r.anat.Lookup(cond.AnatEntityID)
	if err != nil || anat == nil {
		return nil, err
	}
	var stage *similarity.DevStageSimilarity
	if r.stageAware() {
		if stage, err = r.stage.Lookup(cond.DevStageID); err != nil || stage == nil {
			return nil, err
		}
	}

	key := anat.Key()
	if stage != nil {
		key += "#" + stage.GroupID()
	}
	if c, ok := r.conditions[key]; ok {
		return c, nil
	}
	c, err := similarity.NewMultiSpeciesCondition(anat, stage)
	if err != nil {
		return nil, err
	}
	r.conditions[key] = c
	return c, nil
}

type bucketKey struct {
	gene      similarity.GeneKey
	condition string
}

type bucket struct {
	gene      similarity.Gene
	condition *similarity.MultiSpeciesCondition
	calls     []similarity.ExpressionCall
}

type flushedBucket struct {
	call  *similarity.SimilarityExpressionCall
	mixed bool
}

// accumulator collects calls into buckets, remembering first-seen order.
type accumulator struct {
	strategy Strategy
	order    []*bucket
	index    map[bucketKey]*bucket
}

func newAccumulator(strategy Strategy) *accumulator {
	return &accumulator{strategy: strategy, index: make(map[bucketKey]*bucket)}
}

func (a *accumulator) add(call similarity.ExpressionCall, cond *similarity.MultiSpeciesCondition) {
	key := bucketKey{gene: call.Gene.Key(), condition: cond.Key()}
	b, ok := a.index[key]
	if !ok {
		b = &bucket{gene: call.Gene, condition: cond}
		a.index[key] = b
		a.order = append(a.order, b)
	}
	b.calls = append(b.calls, call)
}

// flush reconciles and releases every pending bucket.
func (a *accumulator) flush() ([]flushedBucket, error) {
	out := make([]flushedBucket, 0, len(a.order))
	for _, b := range a.order {
		callType, err := a.strategy.Resolve(b.calls)
		if err != nil {
			return nil, err
		}
		call, err := similarity.NewSimilarityExpressionCall(b.gene, b.condition, b.calls, callType)
		if err != nil {
			return nil, err
		}
		out = append(out, flushedBucket{call: call, mixed: mixed(b.calls)})
	}
	a.order = nil
	clear(a.index)
	return out, nil
}

func mixed(calls []similarity.ExpressionCall) bool {
	for _, c := range calls[1:] {
		if c.CallType != calls[0].CallType {
			return true
		}
	}
	return false
}
