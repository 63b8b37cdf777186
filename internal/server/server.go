// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the brainstorming dialogue over HTTP.
//
//	POST   /start-session  begin or restart a session from profile fields
//	POST   /chat           send one message to a session
//	GET    /sessions/:id   inspect a session
//	DELETE /sessions/:id   discard a session
//	GET    /healthz        liveness
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pdiddy/essay-brainstormer/internal/session"
	"github.com/pdiddy/essay-brainstormer/pkg/types"
)

// DefaultOrigins admits pages opened from file:// URLs and a local live
// server.
var DefaultOrigins = []string{"null", "http://127.0.0.1:5500"}

// DefaultSessionID is used for requests without a session id when
// ServerConfig.DefaultSessionID is empty.
const DefaultSessionID = "default"

// Sessions is the session store the handlers drive.
type Sessions interface {
	Start(ctx context.Context, id string, profile types.UserProfile) (string, session.Reply, error)
	Chat(ctx context.Context, id, message string) (string, session.Reply, error)
	Get(id string) (session.Session, bool)
	Delete(id string) bool
}

// Server wraps the gin engine and its http.Server.
type Server struct {
	Engine *gin.Engine
	http   *http.Server
	log    *zap.Logger
}

// New builds the router for sessions.
func New(cfg types.ServerConfig, sessions Sessions, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	origins := cfg.AllowOrigins
	if len(origins) == 0 {
		origins = DefaultOrigins
	}

	defaultID := cfg.DefaultSessionID
	if defaultID == "" {
		defaultID = DefaultSessionID
	}

	engine := gin.New()
	engine.Use(requestLogger(log), gin.Recovery(), corsMiddleware(origins))

	h := &handler{sessions: sessions, defaultID: defaultID, log: log}
	engine.POST("/start-session", h.startSession)
	engine.POST("/chat", h.chat)
	engine.GET("/sessions/:id", h.getSession)
	engine.DELETE("/sessions/:id", h.deleteSession)
	engine.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	return &Server{
		Engine: engine,
		http:   &http.Server{Addr: cfg.Addr, Handler: engine, ReadHeaderTimeout: 10 * time.Second},
		log:    log,
	}
}

// ListenAndServe serves until Shutdown. It returns nil after a clean shutdown.
func (s *Server) ListenAndServe() error {
	s.log.Info("listening", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// corsMiddleware matches origins exactly. An origin func is used because
// cors.Config rejects schemeless entries such as "null" in AllowOrigins.
func corsMiddleware(origins []string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return cors.New(cors.Config{
		AllowOriginFunc:  func(origin string) bool { return allowed["*"] || allowed[origin] },
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "X-Session-ID"},
		ExposeHeaders:    []string{"X-Session-ID"},
		AllowCredentials: true,
	})
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)))
	}
}
