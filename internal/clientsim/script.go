package clientsim

import (
	"fmt"

	"github.com/dop251/goja"
)

// runScriptLocked executes a server-sent script in an isolated goja runtime,
// the way the browser bootstrap runs it via new Function(code).
func (s *Sim) runScriptLocked(code string) (result any, errMsg string) {
	vm := goja.New()

	err := vm.Set("getElement", func(elementID string) map[string]any {
		w := s.widgets[elementID]
		if w == nil {
			return nil
		}
		return map[string]any{"api": w.scriptAPI()}
	})
	if err != nil {
		return nil, err.Error()
	}

	value, err := vm.RunString("(function() {\n" + code + "\n})()")
	if err != nil {
		return nil, err.Error()
	}
	return value.Export(), ""
}

// scriptAPI exposes the node iteration methods the traversal scripts use.
// Callbacks receive node objects whose data is the committed row data;
// pending edit-session values are deliberately absent.
func (w *widget) scriptAPI() map[string]any {
	visit := func(rows []map[string]any, cb func(map[string]any)) {
		for i, row := range rows {
			cb(map[string]any{
				"data": row,
				"id":   w.nodeIDAt(i, row),
			})
		}
	}

	return map[string]any{
		"forEachNode": func(cb func(map[string]any)) {
			visit(w.rows, cb)
		},
		"forEachNodeAfterFilter": func(cb func(map[string]any)) {
			visit(w.visibleRows(), cb)
		},
		"forEachNodeAfterFilterAndSort": func(cb func(map[string]any)) {
			visit(w.sortedVisibleRows(), cb)
		},
		"forEachLeafNode": func(cb func(map[string]any)) {
			// Flat row models have no group nodes; every node is a leaf.
			visit(w.rows, cb)
		},
	}
}

// widgetLocked returns the widget for elementID or an error.
func (s *Sim) widgetLocked(elementID string) (*widget, error) {
	w := s.widgets[elementID]
	if w == nil {
		return nil, fmt.Errorf("clientsim: no widget for element %s", elementID)
	}
	return w, nil
}
