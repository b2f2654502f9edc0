// Package session tracks connected clients and routes widget events to the
// server-side elements attached to each connection.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shiftmatic/gridlink/internal/infrastructure/logging"
	"github.com/shiftmatic/gridlink/internal/infrastructure/monitoring"
	"github.com/shiftmatic/gridlink/internal/link"
	"github.com/shiftmatic/gridlink/internal/shared/id"
)

// EventTarget receives widget events addressed to one element.
type EventTarget interface {
	HandleEvent(event string, args []any)
}

// Session is one connected client and the elements living on it.
type Session struct {
	client    *link.Client
	token     string
	createdAt time.Time
	log       *logging.Logger
	metrics   *monitoring.Metrics

	mu       sync.RWMutex
	elements map[id.ElementID]EventTarget
}

// New wraps a client in a session and installs event routing. metrics may
// be nil.
func New(client *link.Client, log *logging.Logger, metrics *monitoring.Metrics) *Session {
	if log == nil {
		log = logging.NewNop()
	}
	s := &Session{
		client:    client,
		token:     uuid.NewString(),
		createdAt: time.Now(),
		log:       log.With(zap.String("session", client.ID().String())),
		metrics:   metrics,
		elements:  make(map[id.ElementID]EventTarget),
	}
	client.SetEventHandler(s.routeEvent)
	return s
}

// ID returns the session identifier.
func (s *Session) ID() id.SessionID { return s.client.ID() }

// Token returns the opaque per-connection token.
func (s *Session) Token() string { return s.token }

// Client returns the underlying link client.
func (s *Session) Client() *link.Client { return s.client }

// CreatedAt returns the connection time.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// Attach registers an element as the target for its widget events.
func (s *Session) Attach(elementID id.ElementID, target EventTarget) {
	s.mu.Lock()
	_, replaced := s.elements[elementID]
	s.elements[elementID] = target
	s.mu.Unlock()

	if s.metrics != nil && !replaced {
		s.metrics.ElementsActive.Inc()
	}
}

// Detach removes an element from event routing.
func (s *Session) Detach(elementID id.ElementID) {
	s.mu.Lock()
	_, existed := s.elements[elementID]
	delete(s.elements, elementID)
	s.mu.Unlock()

	if s.metrics != nil && existed {
		s.metrics.ElementsActive.Dec()
	}
}

// ElementCount reports how many elements are attached.
func (s *Session) ElementCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.elements)
}

func (s *Session) routeEvent(elementID id.ElementID, event string, args []any) {
	s.mu.RLock()
	target, ok := s.elements[elementID]
	s.mu.RUnlock()

	if !ok {
		s.log.Debug("Event for unknown element",
			zap.String("element", elementID.String()),
			zap.String("event", event),
		)
		return
	}
	target.HandleEvent(event, args)
}

// Close releases the session's elements, fails pending calls and closes the
// transport.
func (s *Session) Close() error {
	s.mu.Lock()
	released := len(s.elements)
	s.elements = make(map[id.ElementID]EventTarget)
	s.mu.Unlock()

	if s.metrics != nil && released > 0 {
		s.metrics.ElementsActive.Sub(float64(released))
	}
	return s.client.Close()
}
