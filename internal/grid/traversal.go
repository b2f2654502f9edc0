package grid

import (
	"fmt"

	"github.com/shiftmatic/gridlink/internal/shared/id"
)

// Traversal selects how ClientData enumerates the grid's row nodes.
// The set is closed; there is no way to inject a custom iteration method.
type Traversal int

const (
	// AllUnsorted visits every row node in model order.
	AllUnsorted Traversal = iota
	// FilteredUnsorted visits rows that pass the active filter, unsorted.
	FilteredUnsorted
	// FilteredAndSorted visits filtered rows in the active sort order.
	FilteredAndSorted
	// LeafOnly visits leaf nodes only, skipping group rows.
	LeafOnly
)

var traversalNames = map[Traversal]string{
	AllUnsorted:       "all_unsorted",
	FilteredUnsorted:  "filtered_unsorted",
	FilteredAndSorted: "filtered_sorted",
	LeafOnly:          "leaf",
}

// apiMethods maps each policy to the grid API iteration method executed on
// the client.
var apiMethods = map[Traversal]string{
	AllUnsorted:       "forEachNode",
	FilteredUnsorted:  "forEachNodeAfterFilter",
	FilteredAndSorted: "forEachNodeAfterFilterAndSort",
	LeafOnly:          "forEachLeafNode",
}

func (t Traversal) String() string {
	if name, ok := traversalNames[t]; ok {
		return name
	}
	return fmt.Sprintf("traversal(%d)", int(t))
}

// Valid reports whether t is one of the four defined policies.
func (t Traversal) Valid() bool {
	_, ok := apiMethods[t]
	return ok
}

// script builds the client-side program that collects each visited node's
// committed data into an ordered array.
func (t Traversal) script(elementID id.ElementID) string {
	return fmt.Sprintf(`
const rowData = [];
getElement(%q).api.%s((node) => { rowData.push(node.data); });
return rowData;
`, elementID.String(), apiMethods[t])
}
