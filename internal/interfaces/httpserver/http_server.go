// Package httpserver wires the gin engine, routes and lifecycle for the
// service's HTTP surface.
package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/inkwell-books/sms-concierge/internal/interfaces/httpserver/handlers"
)

// Server hosts the webhook endpoint and the operational routes.
type Server struct {
	engine          *gin.Engine
	server          *http.Server
	shutdownTimeout time.Duration
	log             zerolog.Logger
}

// New builds the server and registers all routes.
func New(addr string, environment string, shutdownTimeout time.Duration, webhookHandler *handlers.WebhookHandler, conversationHandler *handlers.ConversationHandler, log zerolog.Logger) *Server {
	if environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestLogger(log))

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/readyz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	engine.POST("/webhook/sms", webhookHandler.HandleInbound)

	v1 := engine.Group("/v1")
	{
		v1.GET("/conversations/:phone/summary", conversationHandler.GetSummary)
		v1.POST("/conversations/:phone/end", conversationHandler.EndConversation)
	}

	return &Server{
		engine: engine,
		server: &http.Server{
			Addr:              addr,
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		},
		shutdownTimeout: shutdownTimeout,
		log:             log.With().Str("component", "http-server").Logger(),
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.server.Addr).Msg("http server listening")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	s.log.Info().Msg("shutting down http server")
	return s.server.Shutdown(shutdownCtx)
}

// requestLogger emits one structured line per request, skipping the
// health and metrics probes.
func requestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if path == "/healthz" || path == "/readyz" || path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		log.Info().
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("http request")
	}
}
