package output

import (
	"io"

	"github.com/exprmap/exprmap/internal/cmd/table"
	"github.com/exprmap/exprmap/pkg/expander"
	"github.com/exprmap/exprmap/pkg/similarity"
)

// CallView is the serialized form of a similarity call.
type CallView struct {
	GeneID        string   `json:"gene_id" yaml:"gene_id"`
	GeneName      string   `json:"gene_name,omitempty" yaml:"gene_name,omitempty"`
	SpeciesID     int      `json:"species_id" yaml:"species_id"`
	Condition     string   `json:"condition" yaml:"condition"`
	AnatEntityIDs []string `json:"anat_entity_ids" yaml:"anat_entity_ids"`
	StageGroupID  string   `json:"stage_group_id,omitempty" yaml:"stage_group_id,omitempty"`
	CallType      string   `json:"call_type" yaml:"call_type"`
	SourceCalls   int      `json:"source_calls" yaml:"source_calls"`
	BestRank      *float64 `json:"best_rank,omitempty" yaml:"best_rank,omitempty"`
	Trusted       bool     `json:"trusted" yaml:"trusted"`
}

// CountsView is the serialized form of the counts of one condition.
type CountsView struct {
	Condition     string             `json:"condition" yaml:"condition"`
	AnatEntityIDs []string           `json:"anat_entity_ids" yaml:"anat_entity_ids"`
	StageGroupID  string             `json:"stage_group_id,omitempty" yaml:"stage_group_id,omitempty"`
	Expressed     []string           `json:"expressed" yaml:"expressed"`
	NotExpressed  []string           `json:"not_expressed" yaml:"not_expressed"`
	NoData        []string           `json:"no_data" yaml:"no_data"`
	BestRanks     map[string]float64 `json:"best_ranks,omitempty" yaml:"best_ranks,omitempty"`
}

// AnalysisView is the serialized form of a multi-species analysis.
type AnalysisView struct {
	RequestedGeneIDs []string     `json:"requested_gene_ids" yaml:"requested_gene_ids"`
	NotFoundGeneIDs  []string     `json:"not_found_gene_ids" yaml:"not_found_gene_ids"`
	Conditions       []CountsView `json:"conditions" yaml:"conditions"`
}

// MultiSpeciesCallView is the serialized form of a multi-species call.
type MultiSpeciesCallView struct {
	OrthologGroupID string   `json:"ortholog_group_id" yaml:"ortholog_group_id"`
	TaxonID         int      `json:"taxon_id" yaml:"taxon_id"`
	Condition       string   `json:"condition" yaml:"condition"`
	GeneIDs         []string `json:"gene_ids" yaml:"gene_ids"`
	SpeciesIDs      []int    `json:"species_ids" yaml:"species_ids"`
	Score           *float64 `json:"score,omitempty" yaml:"score,omitempty"`
}

// ExpansionView is the serialized form of an expanded condition filter.
type ExpansionView struct {
	AnatEntityIDs        []string `json:"anat_entity_ids" yaml:"anat_entity_ids"`
	DevStageIDs          []string `json:"dev_stage_ids" yaml:"dev_stage_ids"`
	DroppedAnatEntityIDs []string `json:"dropped_anat_entity_ids,omitempty" yaml:"dropped_anat_entity_ids,omitempty"`
	DroppedDevStageIDs   []string `json:"dropped_dev_stage_ids,omitempty" yaml:"dropped_dev_stage_ids,omitempty"`
}

// FormatCalls writes similarity calls in the given format.
func FormatCalls(w io.Writer, format Format, calls []*similarity.SimilarityExpressionCall) error {
	var data any
	switch format {
	case FormatTable, FormatWide, "":
		data = table.CallsToTableData(calls, format == FormatWide)
	default:
		views := make([]CallView, 0, len(calls))
		for _, c := range calls {
			views = append(views, callView(c))
		}
		data = views
	}
	return NewFormatter(format).Format(w, data)
}

// FormatAnalysis writes a multi-species analysis in the given format.
func FormatAnalysis(w io.Writer, format Format, analysis *similarity.MultiSpeciesExprAnalysis) error {
	var data any
	switch format {
	case FormatTable, FormatWide, "":
		data = table.AnalysisToTableData(analysis)
	default:
		view := AnalysisView{
			RequestedGeneIDs: analysis.RequestedGeneIDs(),
			NotFoundGeneIDs:  analysis.NotFoundGeneIDs(),
			Conditions:       make([]CountsView, 0, analysis.Len()),
		}
		for _, e := range analysis.Entries() {
			view.Conditions = append(view.Conditions, countsView(e))
		}
		data = view
	}
	return NewFormatter(format).Format(w, data)
}

// FormatMultiSpeciesCalls writes multi-species calls in the given format.
func FormatMultiSpeciesCalls(w io.Writer, format Format, calls []*similarity.MultiSpeciesCall) error {
	var data any
	switch format {
	case FormatTable, FormatWide, "":
		data = table.MultiSpeciesCallsToTableData(calls)
	default:
		views := make([]MultiSpeciesCallView, 0, len(calls))
		for _, c := range calls {
			v := MultiSpeciesCallView{
				OrthologGroupID: c.OrthologGroupID(),
				TaxonID:         c.TaxonID(),
				Condition:       c.Condition().Key(),
				GeneIDs:         c.GeneIDs(),
				SpeciesIDs:      c.SpeciesIDs(),
			}
			if s, ok := c.ConservationScore(); ok {
				v.Score = &s
			}
			views = append(views, v)
		}
		data = views
	}
	return NewFormatter(format).Format(w, data)
}

// FormatExpansion writes an expanded condition filter in the given format.
func FormatExpansion(w io.Writer, format Format, e *expander.Expansion) error {
	var data any
	switch format {
	case FormatTable, FormatWide, "":
		data = table.ExpansionToTableData(e)
	default:
		data = ExpansionView{
			AnatEntityIDs:        e.Filter.AnatEntityIDs,
			DevStageIDs:          e.Filter.DevStageIDs,
			DroppedAnatEntityIDs: e.DroppedAnatEntityIDs,
			DroppedDevStageIDs:   e.DroppedDevStageIDs,
		}
	}
	return NewFormatter(format).Format(w, data)
}

func callView(c *similarity.SimilarityExpressionCall) CallView {
	cond := c.Condition()
	v := CallView{
		GeneID:        c.Gene().ID,
		GeneName:      c.Gene().Name,
		SpeciesID:     c.Gene().SpeciesID,
		Condition:     cond.Key(),
		AnatEntityIDs: cond.AnatSimilarity().AllAnatEntityIDs(),
		CallType:      c.CallType().String(),
		SourceCalls:   len(c.SourceCalls()),
		Trusted:       cond.AnatSimilarity().IsTrusted(),
	}
	if stage := cond.StageSimilarity(); stage != nil {
		v.StageGroupID = stage.GroupID()
	}
	if r, ok := c.MinObservedRank(); ok {
		v.BestRank = &r
	}
	return v
}

func countsView(e similarity.ConditionCounts) CountsView {
	ids := func(genes []similarity.Gene) []string {
		out := make([]string, 0, len(genes))
		for _, g := range genes {
			out = append(out, g.ID)
		}
		return out
	}
	v := CountsView{
		Condition:     e.Condition.Key(),
		AnatEntityIDs: e.Condition.AnatSimilarity().AllAnatEntityIDs(),
		Expressed:     ids(e.Counts.Genes(similarity.Expressed)),
		NotExpressed:  ids(e.Counts.Genes(similarity.NotExpressed)),
		NoData:        ids(e.Counts.NoDataGenes()),
	}
	if stage := e.Condition.StageSimilarity(); stage != nil {
		v.StageGroupID = stage.GroupID()
	}
	if ranks := e.Counts.Ranks(); len(ranks) > 0 {
		v.BestRanks = make(map[string]float64, len(ranks))
		for k, r := range ranks {
			v.BestRanks[k.String()] = r
		}
	}
	return v
}
