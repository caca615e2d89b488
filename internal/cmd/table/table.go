// Package table provides common table formatting utilities for CLI commands.
package table

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/exprmap/exprmap/pkg/expander"
	"github.com/exprmap/exprmap/pkg/similarity"
)

// Align represents column alignment in tables.
type Align int

const (
	// AlignDefault uses the default alignment (skip).
	AlignDefault Align = iota
	// AlignLeft aligns content to the left.
	AlignLeft
	// AlignCenter centers content.
	AlignCenter
	// AlignRight aligns content to the right.
	AlignRight
)

// Data represents table formatting data to avoid import cycles.
type Data struct {
	Headers         []string
	Rows            [][]string
	ColumnAlignment []Align // Optional: column alignment
}

// CallsToTableData converts similarity calls to table format.
func CallsToTableData(calls []*similarity.SimilarityExpressionCall, wide bool) Data {
	headers := []string{"Gene", "Species", "Anat Entities", "Stage Group", "Call Type"}
	if wide {
		headers = append(headers, "Sources", "Best Rank", "Trusted")
	}

	rows := make([][]string, 0, len(calls))
	for _, c := range calls {
		cond := c.Condition()
		row := []string{
			GeneLabel(c.Gene()),
			strconv.Itoa(c.Gene().SpeciesID),
			strings.Join(cond.AnatSimilarity().AllAnatEntityIDs(), ", "),
			StageGroup(cond),
			CallTypeLabel(c.CallType()),
		}
		if wide {
			rank := "-"
			if r, ok := c.MinObservedRank(); ok {
				rank = FormatRank(r)
			}
			row = append(row,
				strconv.Itoa(len(c.SourceCalls())),
				rank,
				strconv.FormatBool(cond.AnatSimilarity().IsTrusted()),
			)
		}
		rows = append(rows, row)
	}

	alignment := []Align{AlignLeft, AlignRight, AlignLeft, AlignLeft, AlignLeft}
	if wide {
		alignment = append(alignment, AlignRight, AlignRight, AlignCenter)
	}
	return Data{Headers: headers, Rows: rows, ColumnAlignment: alignment}
}

// AnalysisToTableData converts a multi-species analysis to one row per condition.
func AnalysisToTableData(analysis *similarity.MultiSpeciesExprAnalysis) Data {
	headers := []string{"Anat Entities", "Stage Group"}
	for _, t := range similarity.SummaryCallTypes {
		headers = append(headers, CallTypeLabel(t))
	}
	headers = append(headers, "No Data", "Best Ranks")

	rows := make([][]string, 0, analysis.Len())
	for _, e := range analysis.Entries() {
		counts := e.Counts
		var ranks []string
		for _, g := range counts.GenesWithData() {
			if r, ok := counts.Rank(g.Key()); ok {
				ranks = append(ranks, GeneLabel(g)+"="+FormatRank(r))
			}
		}
		row := []string{
			strings.Join(e.Condition.AnatSimilarity().AllAnatEntityIDs(), ", "),
			StageGroup(e.Condition),
		}
		for _, t := range similarity.SummaryCallTypes {
			row = append(row, strconv.Itoa(counts.Count(t)))
		}
		rows = append(rows, append(row,
			strconv.Itoa(len(counts.NoDataGenes())),
			orDash(strings.Join(ranks, ", ")),
		))
	}

	return Data{
		Headers:         headers,
		Rows:            rows,
		ColumnAlignment: []Align{AlignLeft, AlignLeft, AlignRight, AlignRight, AlignRight, AlignLeft},
	}
}

// MultiSpeciesCallsToTableData converts multi-species calls to table format.
func MultiSpeciesCallsToTableData(calls []*similarity.MultiSpeciesCall) Data {
	headers := []string{"Ortholog Group", "Anat Entities", "Stage Group", "Genes", "Species", "Score"}

	rows := make([][]string, 0, len(calls))
	for _, c := range calls {
		species := make([]string, 0, len(c.SpeciesIDs()))
		for _, id := range c.SpeciesIDs() {
			species = append(species, strconv.Itoa(id))
		}
		score := "-"
		if s, ok := c.ConservationScore(); ok {
			score = strconv.FormatFloat(s, 'f', 3, 64)
		}
		rows = append(rows, []string{
			c.OrthologGroupID(),
			strings.Join(c.Condition().AnatSimilarity().AllAnatEntityIDs(), ", "),
			StageGroup(c.Condition()),
			strings.Join(c.GeneIDs(), ", "),
			strings.Join(species, ", "),
			score,
		})
	}

	return Data{
		Headers:         headers,
		Rows:            rows,
		ColumnAlignment: []Align{AlignLeft, AlignLeft, AlignLeft, AlignLeft, AlignLeft, AlignRight},
	}
}

// ExpansionToTableData lists the expanded and dropped ids per axis.
func ExpansionToTableData(e *expander.Expansion) Data {
	return Data{
		Headers: []string{"Axis", "Expanded", "Dropped"},
		Rows: [][]string{
			{"anat entities", orDash(strings.Join(e.Filter.AnatEntityIDs, ", ")), orDash(strings.Join(e.DroppedAnatEntityIDs, ", "))},
			{"dev stages", orDash(strings.Join(e.Filter.DevStageIDs, ", ")), orDash(strings.Join(e.DroppedDevStageIDs, ", "))},
		},
	}
}

// GeneLabel returns the gene name followed by its id, or the id alone.
func GeneLabel(g similarity.Gene) string {
	if g.Name == "" {
		return g.ID
	}
	return g.Name + " (" + g.ID + ")"
}

// CallTypeLabel returns the call type in title case, "NOT_EXPRESSED" giving
// "Not Expressed".
func CallTypeLabel(t similarity.SummaryCallType) string {
	return cases.Title(language.English).String(strings.ReplaceAll(t.String(), "_", " "))
}

// StageGroup returns the stage group id of a condition, or "-" when the
// condition ignores stages.
func StageGroup(cond *similarity.MultiSpeciesCondition) string {
	if stage := cond.StageSimilarity(); stage != nil {
		return stage.GroupID()
	}
	return "-"
}

// FormatRank formats a rank without trailing zeros.
func FormatRank(r float64) string {
	return strconv.FormatFloat(r, 'f', -1, 64)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
