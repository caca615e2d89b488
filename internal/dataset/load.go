package dataset

import (
	"os"

	"github.com/goccy/go-yaml"

	"github.com/exprmap/exprmap/pkg/errors"
)

// Load reads and parses a dataset file.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}
	return Parse(data, path)
}

// Parse parses a dataset document. Unknown fields are rejected.
func Parse(data []byte, name string) (*Store, error) {
	var doc Document
	if err := yaml.UnmarshalWithOptions(data, &doc, yaml.Strict()); err != nil {
		return nil, errors.WrapParse("yaml", name, err)
	}
	return New(&doc)
}

// Marshal encodes a document as YAML.
func Marshal(doc *Document) ([]byte, error) {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return nil, errors.WrapParse("yaml", "", err)
	}
	return data, nil
}
