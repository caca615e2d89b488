package similarity

import (
	"fmt"
	"math"
	"strings"
)

// SummaryCallType is the presence or absence of expression.
type SummaryCallType string

// Call types
const (
	Expressed    SummaryCallType = "EXPRESSED"
	NotExpressed SummaryCallType = "NOT_EXPRESSED"
)

// SummaryCallTypes lists the call types in precedence order.
var SummaryCallTypes = []SummaryCallType{Expressed, NotExpressed}

// Valid reports whether t is a known call type.
func (t SummaryCallType) Valid() bool {
	return t == Expressed || t == NotExpressed
}

// String returns the string representation of the call type
func (t SummaryCallType) String() string {
	return string(t)
}

// ParseSummaryCallType parses a call type, case-insensitively.
func ParseSummaryCallType(s string) (SummaryCallType, error) {
	t := SummaryCallType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown call type %q", s)
	}
	return t, nil
}

// SummaryQuality is the confidence of a call.
type SummaryQuality string

// Call qualities, best first
const (
	Gold   SummaryQuality = "GOLD"
	Silver SummaryQuality = "SILVER"
	Bronze SummaryQuality = "BRONZE"
)

// Valid reports whether q is a known quality.
func (q SummaryQuality) Valid() bool {
	return q == Gold || q == Silver || q == Bronze
}

// Condition is a single-species condition. DevStageID may be empty.
type Condition struct {
	AnatEntityID string `json:"anat_entity_id" yaml:"anat_entity_id"`
	DevStageID   string `json:"dev_stage_id,omitempty" yaml:"dev_stage_id,omitempty"`
	SpeciesID    int    `json:"species_id" yaml:"species_id"`
}

// ExpressionCall is a single-species expression observation for one gene in
// one condition, as delivered by the observation provider.
//
// Observed is true when the call is backed by data produced in the condition
// itself rather than propagated from related conditions. Rank is the
// expression rank, lower meaning more expressed; zero means unranked.
type ExpressionCall struct {
	Gene      Gene            `json:"gene" yaml:"gene"`
	Condition Condition       `json:"condition" yaml:"condition"`
	CallType  SummaryCallType `json:"call_type" yaml:"call_type"`
	Quality   SummaryQuality  `json:"quality,omitempty" yaml:"quality,omitempty"`
	Observed  bool            `json:"observed" yaml:"observed"`
	Rank      float64         `json:"rank,omitempty" yaml:"rank,omitempty"`
}

// Ranked reports whether the call carries a usable expression rank: a
// positive finite number.
func (c ExpressionCall) Ranked() bool {
	return c.Rank > 0 && !math.IsInf(c.Rank, 1)
}
