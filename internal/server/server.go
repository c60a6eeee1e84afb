// Package server assembles the shell service: configuration, logging,
// metrics, the bundle registry, the window tracker, the home registry, and
// the HTTP/WebSocket surface.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	apihttp "github.com/solardesk/shell/internal/api/http"
	"github.com/solardesk/shell/internal/api/middleware"
	"github.com/solardesk/shell/internal/control"
	"github.com/solardesk/shell/internal/domain/bundle"
	"github.com/solardesk/shell/internal/domain/home"
	"github.com/solardesk/shell/internal/infrastructure/config"
	"github.com/solardesk/shell/internal/infrastructure/logging"
	"github.com/solardesk/shell/internal/infrastructure/monitoring"
	"github.com/solardesk/shell/internal/wm"
	"github.com/solardesk/shell/internal/ws"
	"go.uber.org/zap"
)

// Server wraps the HTTP server and its dependencies.
type Server struct {
	cfg      *config.Config
	log      *logging.Logger
	http     *http.Server
	registry *home.Registry
	tracker  *wm.Tracker
	bundles  *bundle.Registry
	hub      *ws.Hub
	metrics  *monitoring.Metrics
	done     chan struct{}
}

// New builds a fully wired server from configuration.
func New(cfg *config.Config, log *logging.Logger) (*Server, error) {
	metrics := monitoring.NewMetrics()

	tracker := wm.NewTracker(log)

	bundles := bundle.NewRegistry(log)
	if err := bundles.LoadDir(cfg.Bundles.Dir); err != nil {
		return nil, fmt.Errorf("failed to load bundles: %w", err)
	}

	controls := control.NewHTTPFactory(time.Duration(cfg.Control.TimeoutSeconds) * time.Second)

	registry := home.NewRegistry(tracker, bundles, controls, log).WithMetrics(metrics)

	hub := ws.NewHub(log).WithMetrics(metrics)
	hub.Attach(registry)

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	handlers := apihttp.NewHandlers(registry, tracker, bundles)

	router.GET("/health", handlers.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Compositor event feed
	router.POST("/events/window-opened", handlers.WindowOpened)
	router.POST("/events/window-closed", handlers.WindowClosed)
	router.POST("/events/window-raised", handlers.WindowRaised)
	router.POST("/events/active-window-changed", handlers.ActiveWindowChanged)

	// Launcher feed
	router.POST("/launch", handlers.Launch)
	router.POST("/launch-failed", handlers.LaunchFailed)

	// Registry state
	router.GET("/activities", handlers.ListActivities)
	router.GET("/activities/active", handlers.ActiveActivity)
	router.GET("/activities/pending", handlers.PendingActivity)
	router.GET("/activities/next", handlers.NextActivity)
	router.GET("/activities/previous", handlers.PreviousActivity)
	router.GET("/bundles", handlers.ListBundles)

	// Signal stream
	router.GET("/stream", hub.HandleConnection)

	addr := cfg.Server.Host + ":" + cfg.Server.Port
	return &Server{
		cfg:      cfg,
		log:      log.Named("server"),
		http:     &http.Server{Addr: addr, Handler: router},
		registry: registry,
		tracker:  tracker,
		bundles:  bundles,
		hub:      hub,
		metrics:  metrics,
		done:     make(chan struct{}),
	}, nil
}

// Registry exposes the home registry, mainly for tests.
func (s *Server) Registry() *home.Registry { return s.registry }

// Run starts serving and blocks until shutdown.
func (s *Server) Run() error {
	go s.uptimeLoop()

	s.log.Info("shell service listening",
		zap.String("addr", s.http.Addr),
		zap.Int("bundles", s.bundles.Len()))

	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close drains connections and stops the server.
func (s *Server) Close() error {
	close(s.done)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.http.Shutdown(ctx)
}

func (s *Server) uptimeLoop() {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.metrics.UpdateUptime()
		case <-s.done:
			return
		}
	}
}
