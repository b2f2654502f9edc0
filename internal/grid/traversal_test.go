package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shiftmatic/gridlink/internal/shared/id"
)

func TestTraversalNames(t *testing.T) {
	assert.Equal(t, "all_unsorted", AllUnsorted.String())
	assert.Equal(t, "filtered_unsorted", FilteredUnsorted.String())
	assert.Equal(t, "filtered_sorted", FilteredAndSorted.String())
	assert.Equal(t, "leaf", LeafOnly.String())
	assert.Equal(t, "traversal(99)", Traversal(99).String())
}

func TestTraversalValidity(t *testing.T) {
	for _, traversal := range []Traversal{AllUnsorted, FilteredUnsorted, FilteredAndSorted, LeafOnly} {
		assert.True(t, traversal.Valid(), traversal.String())
	}
	assert.False(t, Traversal(-1).Valid())
	assert.False(t, Traversal(4).Valid())
}

func TestTraversalScriptAddressesElement(t *testing.T) {
	elementID := id.NewElementID()

	cases := map[Traversal]string{
		AllUnsorted:       "forEachNode",
		FilteredUnsorted:  "forEachNodeAfterFilter",
		FilteredAndSorted: "forEachNodeAfterFilterAndSort",
		LeafOnly:          "forEachLeafNode",
	}
	for traversal, apiMethod := range cases {
		code := traversal.script(elementID)
		assert.Contains(t, code, elementID.String())
		assert.Contains(t, code, "api."+apiMethod+"(")
		assert.Contains(t, code, "return rowData")
	}
}
