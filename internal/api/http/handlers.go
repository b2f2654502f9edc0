package http

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shiftmatic/gridlink/internal/session"
)

//go:embed static
var staticFiles embed.FS

// Version reported by the status endpoints.
const Version = "0.3.0"

// Handlers contains all HTTP handlers.
type Handlers struct {
	sessions *session.Manager
}

// NewHandlers creates a new handler set.
func NewHandlers(sessions *session.Manager) *Handlers {
	return &Handlers{sessions: sessions}
}

// Root handles the status check.
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "gridlink",
		"version": Version,
	})
}

// Health handles the detailed health check.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"sessions": h.sessions.Count(),
	})
}

// Index serves the bootstrap page that connects back over the websocket.
func (h *Handlers) Index(c *gin.Context) {
	data, err := staticFiles.ReadFile("static/index.html")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "bootstrap page unavailable"})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", data)
}

// StaticFS exposes the embedded assets for the /static route.
func StaticFS() http.FileSystem {
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}
