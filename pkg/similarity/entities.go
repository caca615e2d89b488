package similarity

import "fmt"

// Species is a species with expression data.
type Species struct {
	ID             int    `json:"id" yaml:"id"`
	ScientificName string `json:"scientific_name" yaml:"scientific_name"`
	CommonName     string `json:"common_name,omitempty" yaml:"common_name,omitempty"`
	ParentTaxonID  int    `json:"parent_taxon_id" yaml:"parent_taxon_id"`
}

// AnatEntity is an anatomical entity such as UBERON:0000955 (brain).
type AnatEntity struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
}

// DevStage is a developmental stage.
type DevStage struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
}

// Gene is a gene of one species. The same gene id can exist in several
// species, so identity is the pair returned by Key.
type Gene struct {
	ID        string `json:"id" yaml:"id"`
	Name      string `json:"name,omitempty" yaml:"name,omitempty"`
	SpeciesID int    `json:"species_id" yaml:"species_id"`
	Biotype   string `json:"biotype,omitempty" yaml:"biotype,omitempty"`
}

// GeneKey identifies a gene across species.
type GeneKey struct {
	ID        string `json:"id" yaml:"id"`
	SpeciesID int    `json:"species_id" yaml:"species_id"`
}

// String returns the key as "id@species".
func (k GeneKey) String() string {
	return fmt.Sprintf("%s@%d", k.ID, k.SpeciesID)
}

// Key returns the identity of the gene.
func (g Gene) Key() GeneKey {
	return GeneKey{ID: g.ID, SpeciesID: g.SpeciesID}
}
