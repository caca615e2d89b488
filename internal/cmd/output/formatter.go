// Package output renders command results as tables, JSON or YAML.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/mattn/go-isatty"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/exprmap/exprmap/internal/cmd/table"
	"github.com/exprmap/exprmap/pkg/errors"
)

// Format types for output.
type Format string

const (
	// FormatTable represents table output format.
	FormatTable Format = "table"
	// FormatJSON represents JSON output format.
	FormatJSON Format = "json"
	// FormatYAML represents YAML output format.
	FormatYAML Format = "yaml"
	// FormatWide represents wide table output format.
	FormatWide Format = "wide"
)

// Formatter interface for all output types.
type Formatter interface {
	Format(w io.Writer, data any) error
}

// NewFormatter returns the formatter of format. Table and wide share the
// table formatter: the wide columns are chosen when the rows are built.
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: "  "}
	case FormatYAML:
		return &YAMLFormatter{}
	default:
		return &TableFormatter{}
	}
}

// JSONFormatter writes indented JSON.
type JSONFormatter struct {
	Indent string
}

// Format implements Formatter.
func (f *JSONFormatter) Format(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", f.Indent)
	return enc.Encode(data)
}

// YAMLFormatter writes YAML with block sequences at the parent indentation.
type YAMLFormatter struct{}

// Format implements Formatter.
func (f *YAMLFormatter) Format(w io.Writer, data any) error {
	out, err := yaml.MarshalWithOptions(data, yaml.Indent(2), yaml.IndentSequence(false))
	if err != nil {
		return errors.WrapParse("yaml", "", err)
	}
	_, err = w.Write(out)
	return err
}

// TableFormatter renders table.Data with tablewriter. Any other value is
// written as JSON.
type TableFormatter struct{}

var alignments = map[table.Align]tw.Align{
	table.AlignLeft:   tw.AlignLeft,
	table.AlignCenter: tw.AlignCenter,
	table.AlignRight:  tw.AlignRight,
}

// Format implements Formatter.
func (f *TableFormatter) Format(w io.Writer, data any) error {
	d, ok := data.(table.Data)
	if !ok {
		return (&JSONFormatter{Indent: "  "}).Format(w, data)
	}

	var config tablewriter.Config
	if len(d.ColumnAlignment) > 0 {
		perColumn := make([]tw.Align, len(d.ColumnAlignment))
		for i, a := range d.ColumnAlignment {
			perColumn[i] = alignments[a] // AlignDefault maps to tw.Skip
		}
		config.Header.Alignment = tw.CellAlignment{PerColumn: perColumn}
		config.Row.Alignment = tw.CellAlignment{PerColumn: perColumn}
	}

	tbl := tablewriter.NewTable(w, tablewriter.WithConfig(config))
	if len(d.Headers) > 0 {
		tbl.Header(toCells(d.Headers)...)
	}
	for _, row := range d.Rows {
		if err := tbl.Append(toCells(row)...); err != nil {
			return err
		}
	}
	return tbl.Render()
}

func toCells(values []string) []any {
	cells := make([]any, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}

// DetectFormat returns the explicit format when given. Otherwise it picks a
// table for terminals and JSON for pipes and redirects.
func DetectFormat(explicitFormat string, w io.Writer) Format {
	if explicitFormat != "" {
		return Format(strings.ToLower(explicitFormat))
	}

	if f, ok := w.(*os.File); ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		return FormatTable
	}
	return FormatJSON
}

// ParseFormat converts string to Format with validation.
func ParseFormat(s string) (Format, error) {
	format := Format(strings.ToLower(s))
	switch format {
	case FormatTable, FormatJSON, FormatYAML, FormatWide, "":
		return format, nil
	default:
		return "", errors.NewValidationError("format", s,
			fmt.Sprintf("invalid format %q: must be one of: table, json, yaml, wide", s))
	}
}
