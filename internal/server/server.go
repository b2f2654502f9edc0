// Package server wires the link, session and grid layers behind the HTTP
// and websocket endpoints.
package server

import (
	"context"
	_ "embed"
	"fmt"
	nethttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/shiftmatic/gridlink/internal/api/http"
	"github.com/shiftmatic/gridlink/internal/api/middleware"
	"github.com/shiftmatic/gridlink/internal/api/ws"
	"github.com/shiftmatic/gridlink/internal/blueprint"
	"github.com/shiftmatic/gridlink/internal/grid"
	"github.com/shiftmatic/gridlink/internal/infrastructure/config"
	"github.com/shiftmatic/gridlink/internal/infrastructure/logging"
	"github.com/shiftmatic/gridlink/internal/infrastructure/monitoring"
	"github.com/shiftmatic/gridlink/internal/session"
)

//go:embed demo.yaml
var demoPreset []byte

// Options control optional server behavior.
type Options struct {
	// Demo mounts a preset grid on every new connection, so a bare browser
	// pointed at the index page gets a working widget.
	Demo bool
}

// Server wraps the HTTP server and its dependencies.
type Server struct {
	router   *gin.Engine
	http     *nethttp.Server
	sessions *session.Manager
	factory  *grid.Factory
	logger   *logging.Logger
	config   *config.Config
	metrics  *monitoring.Metrics
}

// New creates a server instance from configuration.
func New(cfg *config.Config, opts Options) (*Server, error) {
	var logger *logging.Logger
	if cfg.Logging.Development {
		logger = logging.NewDevelopment()
	} else {
		var err error
		logger, err = logging.New(logging.Config{
			Level:       cfg.Logging.Level,
			OutputPaths: []string{"stdout"},
		})
		if err != nil {
			return nil, fmt.Errorf("logger: %w", err)
		}
	}

	logger.Info("Initializing gridlink server",
		zap.String("port", cfg.Server.Port),
		zap.Bool("demo", opts.Demo),
	)

	registry := prometheus.NewRegistry()
	metrics := monitoring.NewMetricsWithRegistry(registry)

	sessions := session.NewManager(logger, metrics, cfg.Grid.CallTimeout)
	factory := grid.NewFactory(grid.Settings{
		LicenseKey:  cfg.Grid.LicenseKey,
		Theme:       cfg.Grid.Theme,
		CallTimeout: cfg.Grid.CallTimeout,
	})

	var onOpen ws.OnOpen
	if opts.Demo {
		bp, err := blueprint.Parse(demoPreset)
		if err != nil {
			return nil, fmt.Errorf("demo preset: %w", err)
		}
		onOpen = demoMount(factory, bp, logger)
	}

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}
	router.Use(middleware.Compress())

	handlers := http.NewHandlers(sessions)
	wsHandler := ws.NewHandler(sessions, logger, metrics, onOpen)

	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)
	router.GET("/page", handlers.Index)
	router.StaticFS("/static", http.StaticFS())
	router.GET("/ws", wsHandler.HandleConnection)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	logger.Info("Server initialized successfully")

	return &Server{
		router:   router,
		sessions: sessions,
		factory:  factory,
		logger:   logger,
		config:   cfg,
		metrics:  metrics,
	}, nil
}

// Router exposes the gin engine, used by tests.
func (s *Server) Router() *gin.Engine { return s.router }

// Sessions exposes the session manager.
func (s *Server) Sessions() *session.Manager { return s.sessions }

// GridFactory exposes the configured grid factory.
func (s *Server) GridFactory() *grid.Factory { return s.factory }

// Run starts the HTTP server and blocks until it stops.
func (s *Server) Run() error {
	addr := s.config.Server.Host + ":" + s.config.Server.Port
	s.logger.Info("Starting HTTP server", zap.String("addr", addr))

	s.http = &nethttp.Server{
		Addr:    addr,
		Handler: s.router,
	}
	if err := s.http.ListenAndServe(); err != nil && err != nethttp.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops accepting connections, closes every session and drains the
// HTTP server within the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")

	s.sessions.CloseAll()

	var err error
	if s.http != nil {
		err = s.http.Shutdown(ctx)
	}
	s.logger.Sync()
	return err
}

// demoMount builds the per-connection hook that renders the preset grid.
func demoMount(factory *grid.Factory, bp *blueprint.Blueprint, logger *logging.Logger) ws.OnOpen {
	return func(sess *session.Session) {
		opts := []grid.Option{
			grid.WithTheme(bp.Grid.Theme),
			grid.WithAutoSizeColumns(bp.Grid.AutoSize),
		}
		if len(bp.Grid.HTMLColumns) > 0 {
			opts = append(opts, grid.WithHTMLColumns(bp.Grid.HTMLColumns...))
		}

		g, err := factory.New(sess.Client(), bp.GridOptions(), opts...)
		if err != nil {
			logger.Warn("Demo grid mount failed",
				zap.String("session", sess.ID().String()),
				zap.Error(err),
			)
			return
		}
		sess.Attach(g.ID(), g)
		logger.Info("Demo grid mounted",
			zap.String("session", sess.ID().String()),
			zap.String("element", g.ID().String()),
		)
	}
}
