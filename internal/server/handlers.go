// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pdiddy/essay-brainstormer/internal/session"
	"github.com/pdiddy/essay-brainstormer/pkg/types"
)

// sessionHeader carries the session id when the body omits it.
const sessionHeader = "X-Session-ID"

type startSessionRequest struct {
	SessionID string `json:"session_id"`
	Name      string `json:"name" binding:"required"`
	Stream    string `json:"stream" binding:"required"`
	Major     string `json:"major"`
	College   string `json:"college" binding:"required"`
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type apiResponse struct {
	SessionID  string `json:"session_id"`
	Response   string `json:"response"`
	IsComplete bool   `json:"is_complete"`
}

type sessionView struct {
	ID        string             `json:"session_id"`
	Stage     session.Stage      `json:"stage"`
	Profile   *types.UserProfile `json:"profile,omitempty"`
	Questions []string           `json:"questions"`
	Answers   []string           `json:"answers"`
	Outline   string             `json:"outline,omitempty"`
	Complete  bool               `json:"is_complete"`
}

type apiError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type errorEnvelope struct {
	Error apiError `json:"error"`
}

type handler struct {
	sessions  Sessions
	defaultID string
	log       *zap.Logger
}

// POST /start-session
func (h *handler) startSession(c *gin.Context) {
	var req startSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	profile := types.UserProfile{
		Name:            strings.TrimSpace(req.Name),
		EducationStream: strings.TrimSpace(req.Stream),
		Major:           strings.TrimSpace(req.Major),
		CollegeName:     strings.TrimSpace(req.College),
	}
	if profile.Name == "" || profile.EducationStream == "" || profile.CollegeName == "" {
		respondError(c, http.StatusBadRequest, "invalid_request", errors.New("name, stream, and college are required"))
		return
	}

	h.log.Info("start session requested", zap.String("name", profile.Name))
	id, reply, err := h.sessions.Start(c.Request.Context(), h.sessionID(c, req.SessionID), profile)
	h.respond(c, id, reply, err)
}

// POST /chat
func (h *handler) chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	h.log.Debug("chat message", zap.String("preview", preview(req.Message, 50)))
	id, reply, err := h.sessions.Chat(c.Request.Context(), h.sessionID(c, req.SessionID), req.Message)
	h.respond(c, id, reply, err)
}

// GET /sessions/:id
func (h *handler) getSession(c *gin.Context) {
	s, ok := h.sessions.Get(c.Param("id"))
	if !ok {
		respondError(c, http.StatusNotFound, "not_found", session.ErrNotFound)
		return
	}
	c.JSON(http.StatusOK, sessionView{
		ID:        s.ID,
		Stage:     s.Stage,
		Profile:   s.Profile,
		Questions: s.Questions,
		Answers:   s.Answers,
		Outline:   s.Outline,
		Complete:  s.Stage == session.StageCompleted,
	})
}

// DELETE /sessions/:id
func (h *handler) deleteSession(c *gin.Context) {
	if !h.sessions.Delete(c.Param("id")) {
		respondError(c, http.StatusNotFound, "not_found", session.ErrNotFound)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) respond(c *gin.Context, id string, reply session.Reply, err error) {
	c.Header(sessionHeader, id)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, apiResponse{SessionID: id, Response: reply.Text, IsComplete: reply.Complete})
	case errors.Is(err, session.ErrGeneration):
		h.log.Warn("turn failed", zap.String("session_id", id), zap.Error(err))
		respondError(c, http.StatusBadGateway, "generation_failed", session.ErrGeneration)
	default:
		h.log.Error("turn failed", zap.String("session_id", id), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "internal", err)
	}
}

// sessionID prefers the id in the body, then the header, then the
// default session.
func (h *handler) sessionID(c *gin.Context, fromBody string) string {
	if id := strings.TrimSpace(fromBody); id != "" {
		return id
	}
	if id := strings.TrimSpace(c.GetHeader(sessionHeader)); id != "" {
		return id
	}
	return h.defaultID
}

func respondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, errorEnvelope{Error: apiError{Message: msg, Code: code}})
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
