package link

import (
	"fmt"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/shiftmatic/gridlink/internal/infrastructure/logging"
	"github.com/shiftmatic/gridlink/internal/infrastructure/monitoring"
	"github.com/shiftmatic/gridlink/internal/shared/id"
)

// DefaultCallTimeout applies to awaited calls that do not override it.
const DefaultCallTimeout = time.Second

// DefaultPendingTTL bounds how long an unanswered call occupies the pending
// table. A dropped response to a client that never replies is reaped after
// this instead of lingering until Close; awaited calls enforce their own,
// shorter deadlines and are unaffected by the sweep.
const DefaultPendingTTL = 5 * time.Minute

// Transport carries raw frames to the client. Implementations must be safe
// to close once; WriteMessage may be called from multiple goroutines and is
// serialized by the Client.
type Transport interface {
	WriteMessage(data []byte) error
	Close() error
}

// EventHandler receives widget events forwarded by the client.
type EventHandler func(element id.ElementID, event string, args []any)

// Client is the server-side end of one browser connection. Multiple calls
// may be in flight concurrently; no ordering is guaranteed between them.
type Client struct {
	id             id.SessionID
	transport      Transport
	log            *logging.Logger
	metrics        *monitoring.Metrics
	defaultTimeout time.Duration
	pendingTTL     time.Duration
	done           chan struct{}

	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[id.CallID]pendingCall
	closed  bool
	onEvent EventHandler
}

// pendingCall is one in-flight call slot. expires only matters when the
// response was dropped; an awaiting caller resolves or abandons first.
type pendingCall struct {
	ch      chan Inbound
	expires time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the client logger.
func WithLogger(log *logging.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithMetrics enables call and message metrics.
func WithMetrics(m *monitoring.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithDefaultTimeout overrides the default awaited-call timeout.
func WithDefaultTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.defaultTimeout = d
		}
	}
}

// WithPendingTTL overrides how long an unanswered call may stay pending
// before it is reaped.
func WithPendingTTL(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.pendingTTL = d
		}
	}
}

// New creates a client over the given transport.
func New(sessionID id.SessionID, transport Transport, opts ...Option) *Client {
	c := &Client{
		id:             sessionID,
		transport:      transport,
		log:            logging.NewNop(),
		defaultTimeout: DefaultCallTimeout,
		pendingTTL:     DefaultPendingTTL,
		done:           make(chan struct{}),
		pending:        make(map[id.CallID]pendingCall),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With(zap.String("session", sessionID.String()))

	go c.sweepPending()
	return c
}

// ID returns the session identifier of this client.
func (c *Client) ID() id.SessionID { return c.id }

// DefaultTimeout returns the default awaited-call timeout.
func (c *Client) DefaultTimeout() time.Duration { return c.defaultTimeout }

// SetEventHandler registers the sink for widget events. Must be set before
// the read loop starts delivering frames.
func (c *Client) SetEventHandler(h EventHandler) {
	c.mu.Lock()
	c.onEvent = h
	c.mu.Unlock()
}

// Send pushes a one-way message to the client. Create and update signals use
// this path; transport failures pass through to the caller untranslated.
func (c *Client) Send(env Envelope) error {
	data, err := sonic.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode %s message: %w", env.Type, err)
	}

	c.writeMu.Lock()
	err = c.transport.WriteMessage(data)
	c.writeMu.Unlock()

	if err != nil {
		return err
	}
	if c.metrics != nil {
		c.metrics.RecordMessage("out", env.Type)
	}
	return nil
}

// RunMethod invokes a named method on the client widget identified by
// element. The returned Response may be awaited for the decoded result or
// dropped for fire-and-forget semantics.
func (c *Client) RunMethod(element id.ElementID, method string, args ...any) *Response {
	if args == nil {
		args = []any{}
	}
	return c.dispatch(method, Envelope{
		Type:    MsgCall,
		Element: element.String(),
		Method:  method,
		Args:    args,
	})
}

// RunScript executes a script in the client runtime and makes its value
// awaitable. This is the raw escape hatch the data reader is built on.
func (c *Client) RunScript(code string) *Response {
	return c.dispatch("script", Envelope{
		Type: MsgScript,
		Code: code,
	})
}

func (c *Client) dispatch(method string, env Envelope) *Response {
	callID := id.NewCallID()
	env.CallID = callID.String()

	ch := make(chan Inbound, 1)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return &Response{
			callID:  callID,
			method:  method,
			sendErr: ErrClosed,
			timeout: c.defaultTimeout,
		}
	}
	c.pending[callID] = pendingCall{ch: ch, expires: time.Now().Add(c.pendingTTL)}
	c.mu.Unlock()

	resp := &Response{
		client:  c,
		callID:  callID,
		method:  method,
		ch:      ch,
		timeout: c.defaultTimeout,
		started: time.Now(),
	}

	if err := c.Send(env); err != nil {
		c.abandon(callID)
		resp.sendErr = err
	}
	return resp
}

// HandleIncoming decodes one frame from the client and routes it to the
// pending call or the event handler.
func (c *Client) HandleIncoming(data []byte) {
	var inb Inbound
	if err := sonic.Unmarshal(data, &inb); err != nil {
		c.log.Warn("Dropping undecodable frame", zap.Error(err))
		return
	}
	if c.metrics != nil {
		c.metrics.RecordMessage("in", inb.Type)
	}

	switch inb.Type {
	case MsgReply:
		c.resolve(id.CallID(inb.CallID), inb)
	case MsgEvent:
		c.mu.Lock()
		handler := c.onEvent
		c.mu.Unlock()
		if handler != nil {
			handler(id.ElementID(inb.Element), inb.Event, inb.Args)
		}
	default:
		c.log.Warn("Unknown inbound message type", zap.String("type", inb.Type))
	}
}

func (c *Client) resolve(callID id.CallID, inb Inbound) {
	c.mu.Lock()
	p, ok := c.pending[callID]
	if ok {
		delete(c.pending, callID)
	}
	c.mu.Unlock()

	if !ok {
		// Reply for an abandoned or unknown call; the wait timed out locally
		// but the client executed anyway.
		c.log.Debug("Late reply discarded", zap.String("call", callID.String()))
		return
	}
	p.ch <- inb
}

// sweepPending reaps call slots whose TTL expired without a reply. These are
// dropped responses against a client that never answered; an awaiting caller
// would have resolved or abandoned the slot already.
func (c *Client) sweepPending() {
	interval := c.pendingTTL / 2
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case now := <-ticker.C:
			c.mu.Lock()
			for callID, p := range c.pending {
				if now.After(p.expires) {
					delete(c.pending, callID)
					c.log.Debug("Unanswered call reaped", zap.String("call", callID.String()))
				}
			}
			c.mu.Unlock()
		}
	}
}

// abandon removes a pending call without resolving it. The client-side
// execution is not cancelled.
func (c *Client) abandon(callID id.CallID) {
	c.mu.Lock()
	delete(c.pending, callID)
	c.mu.Unlock()
}

// Close fails every pending call with ErrClosed and closes the transport.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	for callID, p := range c.pending {
		close(p.ch)
		delete(c.pending, callID)
	}
	c.mu.Unlock()

	close(c.done)
	return c.transport.Close()
}

// PendingCalls reports the number of in-flight calls.
func (c *Client) PendingCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}
