package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiftmatic/gridlink/internal/infrastructure/config"
	"github.com/shiftmatic/gridlink/internal/link"
)

func newTestServer(t *testing.T, opts Options) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.RateLimit.Enabled = false

	srv, err := New(cfg, opts)
	require.NoError(t, err)
	return srv
}

func TestStatusEndpoints(t *testing.T) {
	srv := newTestServer(t, Options{})

	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	srv.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")

	w = httptest.NewRecorder()
	srv.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWebsocketOpensSession(t *testing.T) {
	srv := newTestServer(t, Options{})

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool {
		return srv.Sessions().Count() == 1
	}, time.Second, 10*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool {
		return srv.Sessions().Count() == 0
	}, time.Second, 10*time.Millisecond)
}

func TestHeadlessDemoRunsWithoutBrowser(t *testing.T) {
	srv := newTestServer(t, Options{})

	require.NoError(t, srv.RunHeadlessDemo(context.Background()))
	assert.Equal(t, 1, srv.Sessions().Count())

	srv.Sessions().CloseAll()
	assert.Equal(t, 0, srv.Sessions().Count())
}

func TestDemoModeMountsGridOnConnect(t *testing.T) {
	srv := newTestServer(t, Options{Demo: true})

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var env link.Envelope
	require.NoError(t, sonic.Unmarshal(data, &env))
	assert.Equal(t, link.MsgCreate, env.Type)
	assert.Equal(t, "grid", env.Method)
	assert.Contains(t, env.Classes, "ag-theme-balham")

	options, ok := env.Props["options"].(map[string]any)
	require.True(t, ok)
	assert.NotEmpty(t, options["columnDefs"])
	assert.NotEmpty(t, options["rowData"])
}
