package ws

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/shiftmatic/gridlink/internal/infrastructure/logging"
	"github.com/shiftmatic/gridlink/internal/infrastructure/monitoring"
	"github.com/shiftmatic/gridlink/internal/session"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins in dev
	},
}

// OnOpen runs once per new connection, after the session is registered and
// the read loop is live. Servers use it to mount widgets on the fresh page.
type OnOpen func(*session.Session)

// Handler manages websocket connections.
type Handler struct {
	sessions *session.Manager
	log      *logging.Logger
	metrics  *monitoring.Metrics
	onOpen   OnOpen
}

// NewHandler creates a websocket handler. metrics and onOpen may be nil.
func NewHandler(sessions *session.Manager, log *logging.Logger, metrics *monitoring.Metrics, onOpen OnOpen) *Handler {
	if log == nil {
		log = logging.NewNop()
	}
	return &Handler{
		sessions: sessions,
		log:      log,
		metrics:  metrics,
		onOpen:   onOpen,
	}
}

// HandleConnection handles websocket upgrade and the read loop. Each frame
// read from the browser is handed to the session's client, which routes it
// to a pending call or an event target.
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("Websocket upgrade failed", zap.Error(err))
		return
	}

	sess := h.sessions.Open(&transport{conn: conn})
	if h.metrics != nil {
		h.metrics.WSConnections.Inc()
		defer h.metrics.WSConnections.Dec()
	}
	defer h.sessions.CloseSession(sess.ID())

	if h.onOpen != nil {
		go h.onOpen(sess)
	}

	client := sess.Client()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Warn("Websocket read error",
					zap.String("session", sess.ID().String()),
					zap.Error(err),
				)
			}
			return
		}
		client.HandleIncoming(data)
	}
}

// transport adapts a websocket connection to the link transport. Writes are
// serialized by the client.
type transport struct {
	conn *websocket.Conn
}

func (t *transport) WriteMessage(data []byte) error {
	return t.conn.WriteMessage(websocket.TextMessage, data)
}

func (t *transport) Close() error {
	return t.conn.Close()
}
