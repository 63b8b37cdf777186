// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/essay-brainstormer/internal/session"
	"github.com/pdiddy/essay-brainstormer/pkg/types"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// countingGenerator answers "Q1", "Q2", ... and fails while fail is set.
type countingGenerator struct {
	n    atomic.Int32
	fail atomic.Bool
}

func (g *countingGenerator) Generate(_ context.Context, _ string) (string, error) {
	if g.fail.Load() {
		return "", errors.New("upstream unavailable")
	}
	return "Q" + string(rune('0'+g.n.Add(1))), nil
}

func newTestServer(t *testing.T) (*Server, *countingGenerator) {
	t.Helper()
	gen := &countingGenerator{}
	mgr := session.NewManager(gen, nil, session.Options{})
	return New(types.ServerConfig{DefaultSessionID: "sess-1"}, mgr, nil), gen
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Engine.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer(t)
	w := do(t, s, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}

func TestStartSession_ReturnsFirstQuestion(t *testing.T) {
	s, _ := newTestServer(t)
	w := do(t, s, http.MethodPost, "/start-session",
		`{"name":"Priya","stream":"Engineering","major":"Computer Science","college":"Stanford"}`)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := decode[apiResponse](t, w)
	assert.Equal(t, apiResponse{SessionID: "sess-1", Response: "Q1"}, got)
	assert.Equal(t, "sess-1", w.Header().Get(sessionHeader))
}

func TestStartSession_MissingFields(t *testing.T) {
	s, _ := newTestServer(t)
	tests := []struct {
		name string
		body string
	}{
		{"no college", `{"name":"Priya","stream":"Engineering"}`},
		{"blank name", `{"name":"  ","stream":"Engineering","college":"Stanford"}`},
		{"not json", `name=Priya`},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, s, http.MethodPost, "/start-session", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			env := decode[errorEnvelope](t, w)
			assert.Equal(t, "invalid_request", env.Error.Code)
			assert.NotEmpty(t, env.Error.Message)
		})
	}
}

func TestChat_FullDialogue(t *testing.T) {
	s, _ := newTestServer(t)

	w := do(t, s, http.MethodPost, "/chat", `{"message":"Priya, Engineering, Computer Science, Stanford"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, apiResponse{SessionID: "sess-1", Response: "Q1"}, decode[apiResponse](t, w))

	w = do(t, s, http.MethodPost, "/chat", `{"session_id":"sess-1","message":"a robot"}`)
	assert.Equal(t, "Q2", decode[apiResponse](t, w).Response)

	w = do(t, s, http.MethodPost, "/chat", `{"session_id":"sess-1","message":"teamwork"}`)
	assert.Equal(t, "Q3", decode[apiResponse](t, w).Response)

	w = do(t, s, http.MethodPost, "/chat", `{"session_id":"sess-1","message":"research"}`)
	final := decode[apiResponse](t, w)
	assert.True(t, final.IsComplete)
	assert.Equal(t, session.OutlineIntro+"Q4", final.Response)

	w = do(t, s, http.MethodPost, "/chat", `{"session_id":"sess-1","message":"more?"}`)
	assert.Equal(t, apiResponse{SessionID: "sess-1", Response: session.CompletedMessage, IsComplete: true},
		decode[apiResponse](t, w))
}

func TestChat_WithoutIDContinuesDefaultSession(t *testing.T) {
	gen := &countingGenerator{}
	mgr := session.NewManager(gen, nil, session.Options{})
	s := New(types.ServerConfig{}, mgr, nil)

	w := do(t, s, http.MethodPost, "/start-session", `{"name":"Priya","stream":"Engineering","college":"Stanford"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, apiResponse{SessionID: DefaultSessionID, Response: "Q1"}, decode[apiResponse](t, w))

	for _, want := range []string{"Q2", "Q3", session.OutlineIntro + "Q4"} {
		w = do(t, s, http.MethodPost, "/chat", `{"message":"an answer"}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		got := decode[apiResponse](t, w)
		assert.Equal(t, DefaultSessionID, got.SessionID)
		assert.Equal(t, want, got.Response)
	}
	assert.Equal(t, 1, mgr.Len())

	// An explicit id still gets its own session.
	w = do(t, s, http.MethodPost, "/chat", `{"session_id":"other","message":"Ana, Arts, Painting, RISD"}`)
	assert.Equal(t, "other", decode[apiResponse](t, w).SessionID)
	assert.Equal(t, 2, mgr.Len())
}

func TestChat_SessionIDFromHeader(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"message":"bad input"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(sessionHeader, "from-header")
	w := httptest.NewRecorder()
	s.Engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	got := decode[apiResponse](t, w)
	assert.Equal(t, "from-header", got.SessionID)
	assert.Equal(t, session.MalformedDetailsMessage, got.Response)
}

func TestChat_EmptyBodyStartsSession(t *testing.T) {
	s, _ := newTestServer(t)
	w := do(t, s, http.MethodPost, "/chat", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, session.MalformedDetailsMessage, decode[apiResponse](t, w).Response)
}

func TestChat_GenerationFailureIsRetryable(t *testing.T) {
	s, gen := newTestServer(t)
	do(t, s, http.MethodPost, "/chat", `{"message":"Priya, Engineering, CS, Stanford"}`)

	gen.fail.Store(true)
	w := do(t, s, http.MethodPost, "/chat", `{"session_id":"sess-1","message":"a robot"}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	env := decode[errorEnvelope](t, w)
	assert.Equal(t, "generation_failed", env.Error.Code)
	assert.Equal(t, session.ErrGeneration.Error(), env.Error.Message)

	w = do(t, s, http.MethodGet, "/sessions/sess-1", "")
	assert.Equal(t, "AWAITING_ANSWER_1", decode[sessionView](t, w).Stage.String())

	gen.fail.Store(false)
	w = do(t, s, http.MethodPost, "/chat", `{"session_id":"sess-1","message":"a robot"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Q2", decode[apiResponse](t, w).Response)
}

func TestChat_InvalidJSON(t *testing.T) {
	s, _ := newTestServer(t)
	w := do(t, s, http.MethodPost, "/chat", `{"message":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetSession(t *testing.T) {
	s, _ := newTestServer(t)
	w := do(t, s, http.MethodGet, "/sessions/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", decode[errorEnvelope](t, w).Error.Code)

	do(t, s, http.MethodPost, "/start-session", `{"name":"Priya","stream":"Engineering","college":"Stanford"}`)
	w = do(t, s, http.MethodGet, "/sessions/sess-1", "")
	require.Equal(t, http.StatusOK, w.Code)
	v := decode[sessionView](t, w)
	assert.Equal(t, session.StageAwaitingAnswer1, v.Stage)
	require.NotNil(t, v.Profile)
	assert.Equal(t, "Priya", v.Profile.Name)
	assert.Equal(t, []string{"Q1"}, v.Questions)
	assert.False(t, v.Complete)
	assert.Contains(t, w.Body.String(), `"stage":"AWAITING_ANSWER_1"`)
}

func TestDeleteSession(t *testing.T) {
	s, _ := newTestServer(t)
	do(t, s, http.MethodPost, "/start-session", `{"name":"Priya","stream":"Engineering","college":"Stanford"}`)

	w := do(t, s, http.MethodDelete, "/sessions/sess-1", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, s, http.MethodDelete, "/sessions/sess-1", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCORS(t *testing.T) {
	s, _ := newTestServer(t)
	tests := []struct {
		origin  string
		allowed bool
	}{
		{"null", true},
		{"http://127.0.0.1:5500", true},
		{"https://evil.example", false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.origin, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodOptions, "/chat", nil)
			req.Header.Set("Origin", tt.origin)
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			w := httptest.NewRecorder()
			s.Engine.ServeHTTP(w, req)
			if tt.allowed {
				assert.Equal(t, tt.origin, w.Header().Get("Access-Control-Allow-Origin"))
			} else {
				assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
			}
		})
	}
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "short", preview("short", 10))
	assert.Equal(t, "abc...", preview("abcdef", 3))
}
