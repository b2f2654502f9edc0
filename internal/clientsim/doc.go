/*
Package clientsim emulates the browser side of the bridge.

# Overview

Sim implements link.Transport. Every frame the server writes is interpreted
the way the real client bootstrap would interpret it: create and update
render a widget from props, call dispatches run_grid_method/run_row_method,
and script executes the program in an embedded goja runtime against the
widget's row nodes, using the same scripts the data reader sends to a browser.

# Fidelity

The simulated grid models committed row-node data only. Pending cell edits
(an edit session that has not been stopped) are held in an overlay invisible
to reads until CommitEdits is called, mirroring the real grid's behavior of
not updating node data until a cell exits edit mode.

Row nodes are identified by the widget's id field ("id" by default,
overridable with the rowIdField option), falling back to the row index.

# Usage

	sim := clientsim.New()
	client := link.New(id.NewSessionID(), sim)
	sim.Bind(client.HandleIncoming)

Used by grid tests and by the server's demo mode, where the whole stack runs
without a browser.
*/
package clientsim
