// Package server provides the HTTP API over the knowledge graph.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/engramkit/engram"
	"github.com/engramkit/engram/pkg/config"
	"github.com/engramkit/engram/pkg/server/handlers"
)

const requestIDKey = "request_id"

// Server represents the HTTP server.
type Server struct {
	config *config.Config
	router *gin.Engine
	client engram.GraphClient
	logger *slog.Logger
	server *http.Server
}

// New creates a new server instance.
func New(cfg *config.Config, client engram.GraphClient, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		config: cfg,
		client: client,
		logger: logger,
	}
}

// Setup sets up the server routes and middleware.
func (s *Server) Setup() {
	gin.SetMode(s.config.Server.Mode)

	s.router = gin.New()
	s.router.Use(requestIDMiddleware())
	s.router.Use(requestLogger(s.logger))
	s.router.Use(gin.Recovery())
	s.router.Use(corsMiddleware())

	s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.config.Server.WriteTimeout) * time.Second,
	}
}

// setupRoutes sets up all the routes.
func (s *Server) setupRoutes() {
	healthHandler := handlers.NewHealthHandler(s.client)
	graphHandler := handlers.NewGraphHandler(s.client, s.logger)

	// Health endpoints
	s.router.GET("/health", healthHandler.HealthCheck)
	s.router.GET("/ready", healthHandler.ReadinessCheck)
	s.router.GET("/live", healthHandler.LivenessCheck)
	s.router.GET("/health/detailed", healthHandler.DetailedHealthCheck)

	// API v1 routes
	v1 := s.router.Group("/api/v1")
	{
		entities := v1.Group("/entities")
		{
			entities.POST("", graphHandler.CreateEntities)
			entities.DELETE("", graphHandler.DeleteEntities)
			entities.POST("/observations", graphHandler.AddObservations)
			entities.DELETE("/observations", graphHandler.DeleteObservations)
		}

		relations := v1.Group("/relations")
		{
			relations.POST("", graphHandler.CreateRelations)
			relations.DELETE("", graphHandler.DeleteRelations)
		}

		v1.GET("/graph", graphHandler.ReadGraph)
		v1.DELETE("/graph", graphHandler.ClearGraph)
		v1.GET("/graph/stats", graphHandler.GraphStats)
		v1.GET("/search", graphHandler.SearchNodes)
		v1.POST("/nodes/open", graphHandler.OpenNodes)
	}
}

// Router returns the configured router; Setup must have been called.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start starts the server.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Stop stops the server gracefully.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("http server stopping")
	return s.server.Shutdown(ctx)
}

// requestIDMiddleware tags every request with an ID for log correlation,
// honoring an inbound X-Request-ID when present.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

// requestLogger logs one line per request with latency and status.
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"request_id", c.GetString(requestIDKey))
	}
}

// corsMiddleware adds CORS headers.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Header("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
