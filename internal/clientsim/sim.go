package clientsim

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bytedance/sonic"

	"github.com/shiftmatic/gridlink/internal/link"
)

// FilterFunc decides whether a row passes the widget's active filter.
type FilterFunc func(row map[string]any) bool

// LessFunc orders two rows under the widget's active sort.
type LessFunc func(a, b map[string]any) bool

// widget is one simulated grid instance.
type widget struct {
	options map[string]any
	classes []string
	license string

	idField string
	rows    []map[string]any // committed node data
	// pending holds open-edit-session values, invisible to reads.
	pending  map[string]map[string]any // nodeID -> field -> value
	selected map[string]bool           // nodeID -> selected

	filter FilterFunc
	less   LessFunc
}

// Sim is a simulated browser client implementing link.Transport.
type Sim struct {
	mu         sync.Mutex
	widgets    map[string]*widget
	deliver    func(data []byte)
	responsive bool
	latency    time.Duration
	closed     bool
}

// New creates an empty simulated client.
func New() *Sim {
	return &Sim{
		widgets:    make(map[string]*widget),
		responsive: true,
	}
}

// Bind wires the sim's outgoing frames to the server-side client,
// typically client.HandleIncoming.
func (s *Sim) Bind(deliver func(data []byte)) {
	s.mu.Lock()
	s.deliver = deliver
	s.mu.Unlock()
}

// SetResponsive toggles replies. An unresponsive sim accepts frames but
// never answers, which is how timeout behavior is exercised.
func (s *Sim) SetResponsive(responsive bool) {
	s.mu.Lock()
	s.responsive = responsive
	s.mu.Unlock()
}

// SetLatency delays every reply by d.
func (s *Sim) SetLatency(d time.Duration) {
	s.mu.Lock()
	s.latency = d
	s.mu.Unlock()
}

// Close implements link.Transport.
func (s *Sim) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

// WriteMessage implements link.Transport: it interprets one server frame.
func (s *Sim) WriteMessage(data []byte) error {
	var env link.Envelope
	if err := sonic.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("clientsim: bad frame: %w", err)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return fmt.Errorf("clientsim: transport closed")
	}

	switch env.Type {
	case link.MsgCreate, link.MsgUpdate:
		s.renderLocked(env)
		s.mu.Unlock()
		return nil

	case link.MsgCall:
		result, errMsg, missing := s.dispatchLocked(env)
		s.replyLocked(env.CallID, result, errMsg, missing)
		s.mu.Unlock()
		return nil

	case link.MsgScript:
		result, errMsg := s.runScriptLocked(env.Code)
		s.replyLocked(env.CallID, result, errMsg, false)
		s.mu.Unlock()
		return nil

	default:
		s.mu.Unlock()
		return fmt.Errorf("clientsim: unknown frame type %q", env.Type)
	}
}

// renderLocked applies a create or update signal.
func (s *Sim) renderLocked(env link.Envelope) {
	w := s.widgets[env.Element]
	if w == nil {
		w = &widget{
			pending:  make(map[string]map[string]any),
			selected: make(map[string]bool),
		}
		s.widgets[env.Element] = w
	}

	options, _ := env.Props["options"].(map[string]any)
	w.options = options
	w.classes = env.Classes
	if key, ok := env.Props["license_key"].(string); ok {
		w.license = key
	}

	w.idField = "id"
	if field, ok := options["rowIdField"].(string); ok && field != "" {
		w.idField = field
	}

	// Re-render resets node state; copy rows so later server-side mutation
	// of the options does not leak into committed node data.
	w.rows = copyRows(options["rowData"])
	w.pending = make(map[string]map[string]any)
	w.selected = make(map[string]bool)
}

func (s *Sim) replyLocked(callID string, result any, errMsg string, missing bool) {
	if !s.responsive || s.deliver == nil || callID == "" {
		return
	}

	inb := link.Inbound{Type: link.MsgReply, CallID: callID, Error: errMsg, Missing: missing}
	if errMsg == "" && !missing && result != nil {
		raw, err := sonic.Marshal(result)
		if err != nil {
			inb.Error = err.Error()
		} else {
			inb.Result = raw
		}
	}

	data, err := sonic.Marshal(inb)
	if err != nil {
		return
	}

	deliver := s.deliver
	if s.latency > 0 {
		time.AfterFunc(s.latency, func() { deliver(data) })
		return
	}
	go deliver(data)
}

func (s *Sim) emitLocked(element, event string, args []any) {
	if s.deliver == nil {
		return
	}
	data, err := sonic.Marshal(link.Inbound{
		Type:    link.MsgEvent,
		Element: element,
		Event:   event,
		Args:    args,
	})
	if err != nil {
		return
	}
	go s.deliver(data)
}

// dispatchLocked executes run_grid_method and run_row_method calls.
func (s *Sim) dispatchLocked(env link.Envelope) (result any, errMsg string, missing bool) {
	w := s.widgets[env.Element]
	if w == nil {
		return nil, fmt.Sprintf("no widget for element %s", env.Element), false
	}

	switch env.Method {
	case "run_grid_method":
		if len(env.Args) == 0 {
			return nil, "run_grid_method requires a method name", false
		}
		name, _ := env.Args[0].(string)
		return w.gridMethod(name, env.Args[1:])

	case "run_row_method":
		if len(env.Args) < 2 {
			return nil, "run_row_method requires a row id and a method name", false
		}
		rowID, _ := env.Args[0].(string)
		name, _ := env.Args[1].(string)
		return w.rowMethod(rowID, name, env.Args[2:])

	default:
		return nil, fmt.Sprintf("unknown component method %q", env.Method), false
	}
}

func (w *widget) gridMethod(name string, args []any) (any, string, bool) {
	switch name {
	case "getSelectedRows":
		selected := []map[string]any{}
		for i, row := range w.rows {
			if w.selected[w.nodeIDAt(i, row)] {
				selected = append(selected, row)
			}
		}
		return selected, "", false

	case "selectAll":
		for i, row := range w.rows {
			w.selected[w.nodeIDAt(i, row)] = true
		}
		return nil, "", false

	case "deselectAll":
		w.selected = make(map[string]bool)
		return nil, "", false

	case "getDisplayedRowCount":
		return len(w.visibleRows()), "", false

	case "stopEditing":
		w.commitEdits()
		return nil, "", false

	default:
		return nil, fmt.Sprintf("api.%s is not a function", name), false
	}
}

func (w *widget) rowMethod(rowID, name string, args []any) (any, string, bool) {
	row := w.findRow(rowID)
	if row == nil {
		return nil, "", true
	}

	switch name {
	case "setSelected":
		selected := true
		if len(args) > 0 {
			selected, _ = args[0].(bool)
		}
		w.selected[rowID] = selected
		return nil, "", false

	case "setDataValue":
		if len(args) < 2 {
			return nil, "setDataValue requires a column and a value", false
		}
		field, _ := args[0].(string)
		row[field] = args[1]
		return nil, "", false

	case "isSelected":
		return w.selected[rowID], "", false

	default:
		return nil, fmt.Sprintf("node.%s is not a function", name), false
	}
}

func (w *widget) findRow(rowID string) map[string]any {
	for i, row := range w.rows {
		if w.nodeIDAt(i, row) == rowID {
			return row
		}
	}
	return nil
}

func (w *widget) nodeIDAt(index int, row map[string]any) string {
	if v, ok := row[w.idField]; ok {
		return fmt.Sprintf("%v", v)
	}
	return fmt.Sprintf("%d", index)
}

// visibleRows applies the active filter.
func (w *widget) visibleRows() []map[string]any {
	if w.filter == nil {
		return w.rows
	}
	out := []map[string]any{}
	for _, row := range w.rows {
		if w.filter(row) {
			out = append(out, row)
		}
	}
	return out
}

// sortedVisibleRows applies filter then sort, without reordering w.rows.
func (w *widget) sortedVisibleRows() []map[string]any {
	visible := append([]map[string]any{}, w.visibleRows()...)
	if w.less != nil {
		sort.SliceStable(visible, func(i, j int) bool {
			return w.less(visible[i], visible[j])
		})
	}
	return visible
}

func (w *widget) commitEdits() {
	for nodeID, fields := range w.pending {
		if row := w.findRow(nodeID); row != nil {
			for field, value := range fields {
				row[field] = value
			}
		}
	}
	w.pending = make(map[string]map[string]any)
}

func copyRows(v any) []map[string]any {
	if v == nil {
		return []map[string]any{}
	}
	raw, err := sonic.Marshal(v)
	if err != nil {
		return []map[string]any{}
	}
	var rows []map[string]any
	if err := sonic.Unmarshal(raw, &rows); err != nil {
		return []map[string]any{}
	}
	if rows == nil {
		rows = []map[string]any{}
	}
	return rows
}
