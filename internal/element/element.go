// Package element provides the server-side base element: identity, props,
// CSS-like classes, and the update signal that makes the client re-render.
//
// Concrete widgets (the grid) embed Element and layer their API on top of
// RunMethod. Props are exposed by reference and mutated in place by the host
// application; no synchronization is provided, concurrent mutation is the
// caller's responsibility.
package element

import (
	"sync"

	"github.com/shiftmatic/gridlink/internal/link"
	"github.com/shiftmatic/gridlink/internal/shared/id"
)

// Handler receives one widget event.
type Handler func(args []any)

// PropFilter transforms the props payload just before it is sent to the
// client. The in-memory props are never touched.
type PropFilter func(props map[string]any) map[string]any

// Element is one server-side widget proxy bound to a client over a link.
type Element struct {
	id        id.ElementID
	component string
	client    *link.Client
	props     map[string]any
	classes   []string
	filter    PropFilter

	mu       sync.Mutex
	handlers map[string][]Handler
}

// New creates an element of the given client-side component type.
func New(client *link.Client, component string, props map[string]any) *Element {
	if props == nil {
		props = make(map[string]any)
	}
	return &Element{
		id:        id.NewElementID(),
		component: component,
		client:    client,
		props:     props,
		handlers:  make(map[string][]Handler),
	}
}

// ID returns the element identifier used to address the client widget.
func (e *Element) ID() id.ElementID { return e.id }

// Component returns the client-side component type.
func (e *Element) Component() string { return e.component }

// Client returns the underlying link client.
func (e *Element) Client() *link.Client { return e.client }

// Props returns the props mapping by reference so callers can mutate it
// in place. It is passed through to the client opaquely, unvalidated.
func (e *Element) Props() map[string]any { return e.props }

// SetProp sets a single prop value.
func (e *Element) SetProp(key string, value any) { e.props[key] = value }

// AddClass appends a class tag applied to the client widget.
func (e *Element) AddClass(class string) {
	e.classes = append(e.classes, class)
}

// Classes returns a copy of the element's class tags.
func (e *Element) Classes() []string {
	return append([]string(nil), e.classes...)
}

// SetPropFilter installs a payload transformer applied on Mount and Update.
func (e *Element) SetPropFilter(f PropFilter) { e.filter = f }

// Mount sends the create signal that renders the widget from current props.
func (e *Element) Mount() error {
	return e.client.Send(link.Envelope{
		Type:    link.MsgCreate,
		Element: e.id.String(),
		Method:  e.component,
		Props:   e.payload(),
		Classes: e.Classes(),
	})
}

// Update pushes the current in-memory props to the client so it re-renders.
// Fire-and-forget: no result is awaited and client-side failures are never
// surfaced; only a transport failure of the underlying link passes through.
func (e *Element) Update() error {
	return e.client.Send(link.Envelope{
		Type:    link.MsgUpdate,
		Element: e.id.String(),
		Props:   e.payload(),
		Classes: e.Classes(),
	})
}

func (e *Element) payload() map[string]any {
	if e.filter == nil {
		return e.props
	}
	return e.filter(e.props)
}

// RunMethod forwards a named method call to the client widget. Await the
// returned response for the result, or drop it to fire and forget.
func (e *Element) RunMethod(name string, args ...any) *link.Response {
	return e.client.RunMethod(e.id, name, args...)
}

// On registers a handler for a client-side widget event.
func (e *Element) On(event string, h Handler) {
	e.mu.Lock()
	e.handlers[event] = append(e.handlers[event], h)
	e.mu.Unlock()
}

// HandleEvent dispatches one widget event to its registered handlers.
func (e *Element) HandleEvent(event string, args []any) {
	e.mu.Lock()
	handlers := append([]Handler(nil), e.handlers[event]...)
	e.mu.Unlock()

	for _, h := range handlers {
		h(args)
	}
}
