// Package dataset implements every collaborator of pkg/sources over an
// in-memory dataset loaded from a YAML file.
//
// A dataset lists the taxonomy, species, genes, curated similarity groups,
// stage groups, expression calls and hierarchical orthologous groups:
//
//	taxonomy:
//	  - {id: 7742, name: Vertebrata}
//	  - {id: 9606, name: Homo sapiens, parent: 7742}
//	species:
//	  - {id: 9606, scientific_name: Homo sapiens, common_name: human}
//	genes:
//	  - {id: ENSG00000139618, name: BRCA2, species_id: 9606, biotype: protein_coding}
//	anat_similarities:
//	  - sources: [UBERON:0000955]
//	    summaries: [{taxon_id: 7742, trusted: true, positive: true}]
//	calls:
//	  - {gene: ENSG00000139618, species_id: 9606, anat: UBERON:0000955, type: EXPRESSED, observed: true, rank: 12.5}
package dataset

import (
	"github.com/exprmap/exprmap/pkg/orthology"
	"github.com/exprmap/exprmap/pkg/similarity"
)

// Document is the YAML layout of a dataset file.
type Document struct {
	Taxonomy         []TaxonEntry            `yaml:"taxonomy"`
	Species          []similarity.Species    `yaml:"species"`
	AnatEntities     []similarity.AnatEntity `yaml:"anat_entities,omitempty"`
	DevStages        []StageEntry            `yaml:"dev_stages,omitempty"`
	Genes            []similarity.Gene       `yaml:"genes"`
	AnatSimilarities []AnatSimilarityEntry   `yaml:"anat_similarities"`
	StageGroups      []StageGroupEntry       `yaml:"stage_groups,omitempty"`
	Calls            []CallEntry             `yaml:"calls"`
	Orthology        []orthology.HOG         `yaml:"orthology,omitempty"`
}

// TaxonEntry is a taxon of the tree. The root has no parent.
type TaxonEntry struct {
	ID     int    `yaml:"id"`
	Name   string `yaml:"name"`
	Parent int    `yaml:"parent,omitempty"`
}

// StageEntry is a developmental stage, optionally restricted to species.
type StageEntry struct {
	ID         string `yaml:"id"`
	Name       string `yaml:"name,omitempty"`
	SpeciesIDs []int  `yaml:"species_ids,omitempty"`
}

// AnatSimilarityEntry is a curated similarity relation with its support at
// each annotated taxon.
type AnatSimilarityEntry struct {
	Sources          []string       `yaml:"sources"`
	TransformationOf []string       `yaml:"transformation_of,omitempty"`
	Summaries        []SummaryEntry `yaml:"summaries"`
}

// SummaryEntry is the support of a relation at one taxon.
type SummaryEntry struct {
	TaxonID  int  `yaml:"taxon_id"`
	Trusted  bool `yaml:"trusted"`
	Positive bool `yaml:"positive"`
}

// StageGroupEntry is a group of equivalent stages valid at and below TaxonID.
type StageGroupEntry struct {
	ID      string   `yaml:"id"`
	TaxonID int      `yaml:"taxon_id"`
	Stages  []string `yaml:"stages"`
}

// CallEntry is an expression call.
type CallEntry struct {
	Gene      string  `yaml:"gene"`
	SpeciesID int     `yaml:"species_id"`
	Anat      string  `yaml:"anat"`
	Stage     string  `yaml:"stage,omitempty"`
	Type      string  `yaml:"type"`
	Quality   string  `yaml:"quality,omitempty"`
	Observed  bool    `yaml:"observed"`
	Rank      float64 `yaml:"rank,omitempty"`
}
