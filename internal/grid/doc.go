// Package grid provides the server-side proxy for a browser-rendered
// AG Grid widget.
//
// The grid owns a declarative options mapping (columns, row data, behavior
// flags) that is passed through to the client opaquely and must stay
// JSON-serializable. Options are exposed by reference; Update pushes the
// current in-memory state so the client re-renders.
//
// Arbitrary grid API methods are forwarded by name via RunGridMethod and
// RunRowMethod: the AG Grid API surface is large and evolving, so the proxy
// deliberately does not enumerate or validate method names.
//
// ClientData reads row data back from the client under one of four traversal
// policies. Note that a cell being edited does not update its row node until
// the cell exits edit mode; edits in an open, uncommitted edit session are
// therefore not visible to reads. This is a timing caveat of the underlying
// grid library (set stopEditingWhenCellsLoseFocus in the options to commit
// on blur), not something the proxy can correct.
package grid
