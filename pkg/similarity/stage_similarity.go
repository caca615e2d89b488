package similarity

import (
	"fmt"
	"slices"
	"sort"

	"github.com/exprmap/exprmap/pkg/errors"
)

// DevStageSimilarity is a group of developmental stages considered equivalent
// across the species of a taxon.
type DevStageSimilarity struct {
	groupID  string
	stageIDs []string
}

// NewDevStageSimilarity builds a stage group. Member ids are de-duplicated and sorted.
func NewDevStageSimilarity(groupID string, stageIDs []string) (*DevStageSimilarity, error) {
	if groupID == "" {
		return nil, errors.NewValidationError("groupID", nil, "group id cannot be empty")
	}
	ids := make([]string, 0, len(stageIDs))
	for _, id := range stageIDs {
		if id == "" {
			return nil, errors.NewValidationError("stageIDs", groupID, "stage id cannot be empty")
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, errors.NewValidationError("stageIDs", groupID, "at least one stage is required")
	}
	sort.Strings(ids)
	return &DevStageSimilarity{groupID: groupID, stageIDs: slices.Compact(ids)}, nil
}

// GroupID returns the group identifier.
func (s *DevStageSimilarity) GroupID() string {
	return s.groupID
}

// StageIDs returns the sorted member stage ids.
func (s *DevStageSimilarity) StageIDs() []string {
	return slices.Clone(s.stageIDs)
}

// Contains reports whether the stage belongs to the group.
func (s *DevStageSimilarity) Contains(stageID string) bool {
	_, found := slices.BinarySearch(s.stageIDs, stageID)
	return found
}

// Equal reports whether both groups have the same id and members.
func (s *DevStageSimilarity) Equal(o *DevStageSimilarity) bool {
	if s == nil || o == nil {
		return s == o
	}
	return s.groupID == o.groupID && slices.Equal(s.stageIDs, o.stageIDs)
}

// String returns a short description of the group
func (s *DevStageSimilarity) String() string {
	return fmt.Sprintf("DevStageSimilarity{%s: %v}", s.groupID, s.stageIDs)
}
