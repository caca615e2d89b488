package similarity

import (
	"github.com/exprmap/exprmap/pkg/errors"
)

// MultiSpeciesCondition is a condition comparable across species: a group of
// similar anatomical entities and, optionally, a group of similar stages.
type MultiSpeciesCondition struct {
	anat  *AnatEntitySimilarity
	stage *DevStageSimilarity
}

// NewMultiSpeciesCondition builds a condition. The stage group may be nil when
// stages are not compared.
func NewMultiSpeciesCondition(anat *AnatEntitySimilarity, stage *DevStageSimilarity) (*MultiSpeciesCondition, error) {
	if anat == nil {
		return nil, errors.NewValidationError("anatSimilarity", nil, "anat entity similarity is required")
	}
	return &MultiSpeciesCondition{anat: anat, stage: stage}, nil
}

// AnatSimilarity returns the anatomical axis.
func (c *MultiSpeciesCondition) AnatSimilarity() *AnatEntitySimilarity {
	return c.anat
}

// StageSimilarity returns the stage axis, nil when stages are not compared.
func (c *MultiSpeciesCondition) StageSimilarity() *DevStageSimilarity {
	return c.stage
}

// Key identifies the condition. Conditions with equal keys are Equal for
// groups coming from one provider.
func (c *MultiSpeciesCondition) Key() string {
	if c.stage == nil {
		return c.anat.Key()
	}
	return c.anat.Key() + "#" + c.stage.GroupID()
}

// Covers reports whether a single-species condition falls into c.
func (c *MultiSpeciesCondition) Covers(cond Condition) bool {
	if !c.anat.Contains(cond.AnatEntityID) {
		return false
	}
	return c.stage == nil || c.stage.Contains(cond.DevStageID)
}

// Equal reports whether both conditions have equal axes.
func (c *MultiSpeciesCondition) Equal(o *MultiSpeciesCondition) bool {
	if c == nil || o == nil {
		return c == o
	}
	return c.anat.Equal(o.anat) && c.stage.Equal(o.stage)
}

// String returns the condition key
func (c *MultiSpeciesCondition) String() string {
	return c.Key()
}
