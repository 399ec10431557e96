// Package server exposes import sessions over HTTP so a web front end can
// drive the upload, preview, correction and import flow.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ginjaninja78/fleet-trip-import/internal/bulkapi"
	"github.com/ginjaninja78/fleet-trip-import/internal/config"
	"github.com/ginjaninja78/fleet-trip-import/internal/session"
)

// evictionInterval is how often idle sessions are swept.
const evictionInterval = time.Minute

// Options wires the server to its collaborators.
type Options struct {
	Config    *config.Config
	Submitter session.Submitter
	Logger    *zap.Logger
	Version   string
}

// Server is the HTTP server of the import flow.
type Server struct {
	config     *config.Config
	httpServer *http.Server
	router     *gin.Engine
	store      *Store
	logger     *zap.Logger
	version    string
}

// NewServer creates a server. Sessions created through it submit with
// credentials taken from the request, falling back to the configured ones.
func NewServer(opts Options) *Server {
	gin.SetMode(gin.ReleaseMode)

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg := opts.Config

	credentials := bulkapi.RequestCredentials{
		Fallback: bulkapi.StaticCredentials{
			Token:          cfg.API.Token,
			OrganizationID: cfg.API.OrganizationID,
		},
	}
	newSession := func() *session.Session {
		return session.New(session.Options{
			Submitter:    opts.Submitter,
			Credentials:  credentials,
			Logger:       logger,
			SourceRemark: cfg.Import.SourceRemark,
		})
	}

	s := &Server{
		config:  cfg,
		router:  gin.New(),
		store:   NewStore(newSession, cfg.Server.SessionTTL, logger),
		logger:  logger,
		version: opts.Version,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
	s.router.Use(cors.New(corsConfig(s.config.Server.AllowedOrigins)))
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Organization-Id"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		s.logger.Info("HTTP request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

func (s *Server) setupRoutes() {
	h := NewHandlers(s.store, s.config.Import, s.logger, s.version)

	s.router.GET("/health", h.HealthCheck)

	api := s.router.Group("/api/import/sessions")
	{
		api.POST("", h.CreateSession)
		api.GET("/:id", h.GetSession)
		api.PATCH("/:id/rows/:index", h.UpdateRow)
		api.POST("/:id/import", h.StartImport)
		api.DELETE("/:id", h.DeleteSession)
	}
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	addr := s.config.Server.Addr()

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
	}

	evictCtx, stopEviction := context.WithCancel(ctx)
	defer stopEviction()
	go s.store.RunEviction(evictCtx, evictionInterval)

	s.logger.Info("Starting HTTP server", zap.String("address", addr))

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", zap.Error(err))
		return err
	}
}

// Stop gracefully stops the HTTP server.
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", zap.Error(err))
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}
