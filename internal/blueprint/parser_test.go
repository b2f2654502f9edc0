package blueprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const preset = `
grid:
  name: people
  theme: alpine
  auto_size: true
  html_columns: [1]
columns:
  - field: name
    header: Name
    checkbox: true
  - field: bio
    editable: true
rows:
  - {name: Alice, bio: "<b>Works</b>"}
  - {name: Bob, bio: plain}
options:
  rowSelection: multiple
  ":getRowId": "(params) => params.data.name"
`

func TestParseExpandsPreset(t *testing.T) {
	bp, err := Parse([]byte(preset))
	require.NoError(t, err)

	assert.Equal(t, "people", bp.Grid.Name)
	assert.Equal(t, "alpine", bp.Grid.Theme)
	assert.True(t, bp.Grid.AutoSize)
	assert.Equal(t, []int{1}, bp.Grid.HTMLColumns)

	options := bp.GridOptions()
	assert.Equal(t, "multiple", options["rowSelection"])

	defs, ok := options["columnDefs"].([]any)
	require.True(t, ok)
	require.Len(t, defs, 2)

	name := defs[0].(map[string]any)
	assert.Equal(t, "name", name["field"])
	assert.Equal(t, "Name", name["headerName"])
	assert.Equal(t, true, name["checkboxSelection"])

	bio := defs[1].(map[string]any)
	assert.Equal(t, "bio", bio["field"])
	assert.Equal(t, true, bio["editable"])
	assert.NotContains(t, bio, "headerName")

	rows, ok := options["rowData"].([]map[string]any)
	require.True(t, ok)
	assert.Len(t, rows, 2)
}

func TestParseRejectsIncompletePresets(t *testing.T) {
	_, err := Parse([]byte("columns:\n  - field: x\n"))
	assert.ErrorContains(t, err, "grid.name")

	_, err = Parse([]byte("grid:\n  name: empty\n"))
	assert.ErrorContains(t, err, "at least one column")

	_, err = Parse([]byte("grid:\n  name: bad\ncolumns:\n  - header: no field\n"))
	assert.ErrorContains(t, err, "field is required")

	_, err = Parse([]byte("grid: ["))
	assert.Error(t, err)
}

func TestTypedSectionsWinOverOptionsBlock(t *testing.T) {
	bp, err := Parse([]byte(`
grid:
  name: g
columns:
  - field: a
options:
  columnDefs: [{field: stale}]
  rowData: [{a: stale}]
`))
	require.NoError(t, err)

	options := bp.GridOptions()
	defs := options["columnDefs"].([]any)
	require.Len(t, defs, 1)
	assert.Equal(t, "a", defs[0].(map[string]any)["field"])
	assert.Empty(t, options["rowData"])
}
