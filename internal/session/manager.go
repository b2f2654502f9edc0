package session

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/shiftmatic/gridlink/internal/infrastructure/logging"
	"github.com/shiftmatic/gridlink/internal/infrastructure/monitoring"
	"github.com/shiftmatic/gridlink/internal/link"
	"github.com/shiftmatic/gridlink/internal/shared/id"
)

// Manager tracks the sessions of all connected clients.
type Manager struct {
	sessions sync.Map
	log      *logging.Logger
	metrics  *monitoring.Metrics
	timeout  time.Duration
}

// NewManager creates a session manager. metrics may be nil.
func NewManager(log *logging.Logger, metrics *monitoring.Metrics, callTimeout time.Duration) *Manager {
	if log == nil {
		log = logging.NewNop()
	}
	return &Manager{
		log:     log,
		metrics: metrics,
		timeout: callTimeout,
	}
}

// Open creates a client over the transport and registers its session.
func (m *Manager) Open(transport link.Transport) *Session {
	sessionID := id.NewSessionID()

	opts := []link.Option{
		link.WithLogger(m.log),
		link.WithDefaultTimeout(m.timeout),
	}
	if m.metrics != nil {
		opts = append(opts, link.WithMetrics(m.metrics))
	}
	client := link.New(sessionID, transport, opts...)

	sess := New(client, m.log, m.metrics)
	m.sessions.Store(sessionID, sess)
	if m.metrics != nil {
		m.metrics.SessionsActive.Inc()
	}

	m.log.Info("Session opened", zap.String("session", sessionID.String()))
	return sess
}

// Get retrieves a session by ID.
func (m *Manager) Get(sessionID id.SessionID) (*Session, bool) {
	val, ok := m.sessions.Load(sessionID)
	if !ok {
		return nil, false
	}
	return val.(*Session), true
}

// CloseSession closes and removes one session.
func (m *Manager) CloseSession(sessionID id.SessionID) {
	val, ok := m.sessions.LoadAndDelete(sessionID)
	if !ok {
		return
	}
	sess := val.(*Session)
	if err := sess.Close(); err != nil {
		m.log.Warn("Session close failed",
			zap.String("session", sessionID.String()),
			zap.Error(err),
		)
	}
	if m.metrics != nil {
		m.metrics.SessionsActive.Dec()
	}
	m.log.Info("Session closed", zap.String("session", sessionID.String()))
}

// Count reports the number of active sessions.
func (m *Manager) Count() int {
	count := 0
	m.sessions.Range(func(_, _ any) bool {
		count++
		return true
	})
	return count
}

// CloseAll closes every active session, used during shutdown.
func (m *Manager) CloseAll() {
	m.sessions.Range(func(key, _ any) bool {
		m.CloseSession(key.(id.SessionID))
		return true
	})
}
