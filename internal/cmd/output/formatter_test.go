package output_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exprmap/exprmap/internal/cmd/output"
	"github.com/exprmap/exprmap/internal/cmd/table"
	"github.com/exprmap/exprmap/pkg/errors"
	"github.com/exprmap/exprmap/pkg/expander"
	"github.com/exprmap/exprmap/pkg/similarity"
)

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"table", "JSON", "yaml", "wide", ""} {
		_, err := output.ParseFormat(s)
		assert.NoError(t, err, s)
	}
	_, err := output.ParseFormat("csv")
	assert.True(t, errors.IsValidationError(err))
}

func TestDetectFormat(t *testing.T) {
	var buf bytes.Buffer
	assert.Equal(t, output.FormatYAML, output.DetectFormat("YAML", &buf))
	assert.Equal(t, output.FormatJSON, output.DetectFormat("", &buf), "non-terminal writers get JSON")
}

func TestFormatTable(t *testing.T) {
	var buf bytes.Buffer
	err := output.NewFormatter(output.FormatTable).Format(&buf, table.Data{
		Headers: []string{"Gene", "Call Type"},
		Rows:    [][]string{{"g1", "EXPRESSED"}},
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "EXPRESSED")
	assert.Contains(t, buf.String(), "g1")
}

func TestFormatTableFallsBackToJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, output.NewFormatter(output.FormatWide).Format(&buf, map[string]int{"calls": 4}))

	var got map[string]int
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, 4, got["calls"])
}

func TestFormatExpansion(t *testing.T) {
	e := &expander.Expansion{
		Filter:               &similarity.ConditionFilter{AnatEntityIDs: []string{"a", "b"}, DevStageIDs: []string{"s"}},
		DroppedAnatEntityIDs: []string{"x"},
	}

	var buf bytes.Buffer
	require.NoError(t, output.FormatExpansion(&buf, output.FormatJSON, e))
	var view output.ExpansionView
	require.NoError(t, json.Unmarshal(buf.Bytes(), &view))
	assert.Equal(t, []string{"a", "b"}, view.AnatEntityIDs)
	assert.Equal(t, []string{"x"}, view.DroppedAnatEntityIDs)
	assert.Empty(t, view.DroppedDevStageIDs)

	buf.Reset()
	require.NoError(t, output.FormatExpansion(&buf, output.FormatYAML, e))
	assert.Contains(t, buf.String(), "dev_stage_ids:")
	assert.Contains(t, buf.String(), "- s")

	buf.Reset()
	require.NoError(t, output.FormatExpansion(&buf, output.FormatTable, e))
	assert.Contains(t, buf.String(), "anat entities")
}
