package sources_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exprmap/exprmap/pkg/sources"
)

func TestSetValidate(t *testing.T) {
	set := sources.NewSet()
	for _, id := range sources.IDs() {
		assert.False(t, set.Has(id), id.String())
	}

	err := set.Validate(sources.TaxonomyID, sources.CallsID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "taxonomy, calls")
	assert.NoError(t, set.Validate())
}
