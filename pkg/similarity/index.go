package similarity

import (
	"github.com/exprmap/exprmap/pkg/errors"
)

// AnatGroupIndex finds the similarity group of an anatomical entity for one
// requested taxon.
type AnatGroupIndex struct {
	taxonID  int
	groups   []*AnatEntitySimilarity
	byEntity map[string][]int
}

// NewAnatGroupIndex indexes groups by member entity. Groups with the same key
// are indexed once.
func NewAnatGroupIndex(taxonID int, groups []*AnatEntitySimilarity) (*AnatGroupIndex, error) {
	idx := &AnatGroupIndex{taxonID: taxonID, byEntity: make(map[string][]int)}
	seen := make(map[string]bool, len(groups))
	for _, g := range groups {
		if g == nil {
			return nil, errors.NewValidationError("anatGroups", nil, "nil anat entity similarity")
		}
		if seen[g.Key()] {
			continue
		}
		seen[g.Key()] = true
		pos := len(idx.groups)
		idx.groups = append(idx.groups, g)
		for _, id := range g.AllAnatEntityIDs() {
			idx.byEntity[id] = append(idx.byEntity[id], pos)
		}
	}
	return idx, nil
}

// Lookup returns the group containing the entity, or nil when there is none.
// An entity in several groups is an integrity error.
func (x *AnatGroupIndex) Lookup(anatEntityID string) (*AnatEntitySimilarity, error) {
	hits := x.byEntity[anatEntityID]
	switch len(hits) {
	case 0:
		return nil, nil
	case 1:
		return x.groups[hits[0]], nil
	}
	keys := make([]string, len(hits))
	for i, h := range hits {
		keys[i] = x.groups[h].Key()
	}
	return nil, errors.NewIntegrityError("anat entity", anatEntityID, x.taxonID, keys)
}

// Groups returns the indexed groups in input order.
func (x *AnatGroupIndex) Groups() []*AnatEntitySimilarity {
	return append([]*AnatEntitySimilarity(nil), x.groups...)
}

// Len returns the number of indexed groups.
func (x *AnatGroupIndex) Len() int {
	return len(x.groups)
}

// StageGroupIndex finds the similarity group of a developmental stage.
type StageGroupIndex struct {
	taxonID int
	groups  []*DevStageSimilarity
	byStage map[string][]int
}

// NewStageGroupIndex indexes stage groups by member stage. Groups with the
// same id are indexed once.
func NewStageGroupIndex(taxonID int, groups []*DevStageSimilarity) (*StageGroupIndex, error) {
	idx := &StageGroupIndex{taxonID: taxonID, byStage: make(map[string][]int)}
	seen := make(map[string]bool, len(groups))
	for _, g := range groups {
		if g == nil {
			return nil, errors.NewValidationError("stageGroups", nil, "nil dev stage similarity")
		}
		if seen[g.GroupID()] {
			continue
		}
		seen[g.GroupID()] = true
		pos := len(idx.groups)
		idx.groups = append(idx.groups, g)
		for _, id := range g.StageIDs() {
			idx.byStage[id] = append(idx.byStage[id], pos)
		}
	}
	return idx, nil
}

// Lookup returns the group containing the stage, or nil when there is none.
// A stage in several groups is an integrity error.
func (x *StageGroupIndex) Lookup(stageID string) (*DevStageSimilarity, error) {
	hits := x.byStage[stageID]
	switch len(hits) {
	case 0:
		return nil, nil
	case 1:
		return x.groups[hits[0]], nil
	}
	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = x.groups[h].GroupID()
	}
	return nil, errors.NewIntegrityError("dev stage", stageID, x.taxonID, ids)
}

// Groups returns the indexed groups in input order.
func (x *StageGroupIndex) Groups() []*DevStageSimilarity {
	return append([]*DevStageSimilarity(nil), x.groups...)
}

// Len returns the number of indexed groups.
func (x *StageGroupIndex) Len() int {
	return len(x.groups)
}
