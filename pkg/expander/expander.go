// Package expander widens a condition filter to the full membership of the
// similarity groups it touches, so that observations on every member of a
// group are fetched even when only one member was asked for.
package expander

import (
	"context"
	"fmt"
	"slices"
	"sort"

	"github.com/exprmap/exprmap/pkg/errors"
	"github.com/exprmap/exprmap/pkg/logging"
	"github.com/exprmap/exprmap/pkg/similarity"
)

// Expansion is the outcome of Expand.
type Expansion struct {
	// Filter lists the sorted member ids of every matched group.
	Filter *similarity.ConditionFilter
	// DroppedAnatEntityIDs and DroppedDevStageIDs are the requested ids found
	// in no group.
	DroppedAnatEntityIDs []string
	DroppedDevStageIDs   []string

	stageAware      bool
	stagesRequested bool
}

// Empty reports whether no observation can fall into any matched group, in
// which case the filter must not be used as is: its empty lists would lift
// every restriction. Requested stages that all got dropped leave it empty
// even when stages are not compared.
func (e *Expansion) Empty() bool {
	if len(e.Filter.AnatEntityIDs) == 0 {
		return true
	}
	return (e.stageAware || e.stagesRequested) && len(e.Filter.DevStageIDs) == 0
}

// Expand returns the filter covering every member of each group matched by
// base. With no anat ids in base, every anat group is matched; the same goes
// independently for stages. Ids outside of any group are dropped. An id
// found in several groups is an integrity error.
//
// Every anat group must have been requested for requestedTaxon.
func Expand(ctx context.Context, requestedTaxon int, base *similarity.ConditionFilter,
	anatGroups []*similarity.AnatEntitySimilarity, stageGroups []*similarity.DevStageSimilarity) (*Expansion, error) {
	for _, g := range anatGroups {
		if g != nil && g.RequestedTaxon().ID != requestedTaxon {
			return nil, errors.NewValidationError("anatGroups", g.Key(),
				fmt.Sprintf("group requested for taxon %d, expected %d", g.RequestedTaxon().ID, requestedTaxon))
		}
	}
	anatIndex, err := similarity.NewAnatGroupIndex(requestedTaxon, anatGroups)
	if err != nil {
		return nil, err
	}
	stageIndex, err := similarity.NewStageGroupIndex(requestedTaxon, stageGroups)
	if err != nil {
		return nil, err
	}

	var anatIDs, stageIDs []string
	if base != nil {
		anatIDs, stageIDs = base.AnatEntityIDs, base.DevStageIDs
	}
	logger := logging.FromContext(ctx)

	expanded := &similarity.ConditionFilter{}
	result := &Expansion{
		Filter:          expanded,
		stageAware:      stageIndex.Len() > 0,
		stagesRequested: len(stageIDs) > 0,
	}
	if len(anatIDs) == 0 {
		for _, g := range anatIndex.Groups() {
			expanded.AnatEntityIDs = append(expanded.AnatEntityIDs, g.AllAnatEntityIDs()...)
		}
	} else {
		for _, id := range anatIDs {
			g, err := anatIndex.Lookup(id)
			if err != nil {
				return nil, err
			}
			if g == nil {
				logger.Debug().Str("anat_entity_id", id).Int("taxon_id", requestedTaxon).
					Msg("Anat entity in no similarity group, dropped from filter")
				result.DroppedAnatEntityIDs = append(result.DroppedAnatEntityIDs, id)
				continue
			}
			expanded.AnatEntityIDs = append(expanded.AnatEntityIDs, g.AllAnatEntityIDs()...)
		}
	}

	if len(stageIDs) == 0 {
		for _, g := range stageIndex.Groups() {
			expanded.DevStageIDs = append(expanded.DevStageIDs, g.StageIDs()...)
		}
	} else {
		for _, id := range stageIDs {
			g, err := stageIndex.Lookup(id)
			if err != nil {
				return nil, err
			}
			if g == nil {
				logger.Debug().Str("dev_stage_id", id).Int("taxon_id", requestedTaxon).
					Msg("Dev stage in no similarity group, dropped from filter")
				result.DroppedDevStageIDs = append(result.DroppedDevStageIDs, id)
				continue
			}
			expanded.DevStageIDs = append(expanded.DevStageIDs, g.StageIDs()...)
		}
	}

	expanded.AnatEntityIDs = sortedUnique(expanded.AnatEntityIDs)
	expanded.DevStageIDs = sortedUnique(expanded.DevStageIDs)
	return result, nil
}

func sortedUnique(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	sort.Strings(ids)
	return slices.Compact(ids)
}
