// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pdiddy/essay-brainstormer/pkg/types"
)

// Recorder receives every turn that completed without error.
type Recorder interface {
	RecordTurn(ctx context.Context, turn types.Turn) error
}

// Manager keys sessions by id. Calls for one id run one at a time; calls
// for different ids run in parallel and share no state.
type Manager struct {
	gen  Generator
	opts Options
	log  *zap.Logger
	rec  Recorder

	// NewID generates ids for sessions started without one.
	NewID func() string

	mu      sync.RWMutex
	entries map[string]*entry
}

type entry struct {
	mu       sync.Mutex
	ctrl     *Controller
	lastUsed atomic.Int64
}

// NewManager returns an empty manager. rec may be nil.
func NewManager(gen Generator, rec Recorder, opts Options) *Manager {
	opts = opts.withDefaults()
	return &Manager{
		gen:     gen,
		opts:    opts,
		log:     opts.Logger,
		rec:     rec,
		NewID:   uuid.NewString,
		entries: make(map[string]*entry),
	}
}

// Start begins (or restarts) the session id with profile and returns the
// first question. An empty id is replaced by a new one; the id actually
// used is returned.
func (m *Manager) Start(ctx context.Context, id string, profile types.UserProfile) (string, Reply, error) {
	if id == "" {
		id = m.NewID()
	}
	e := m.acquire(id)
	defer e.mu.Unlock()

	reply, err := e.ctrl.Begin(ctx, profile)
	if err != nil {
		return id, Reply{}, err
	}
	m.record(ctx, types.Turn{
		SessionID: id,
		Stage:     StageAwaitingDetails.String(),
		Input:     FormatDetails(profile),
		Output:    reply.Text,
		Profile:   &profile,
	})
	return id, reply, nil
}

// Chat advances the session id with message. An unknown id starts a fresh
// session at StageAwaitingDetails, so the message is read as a details
// line; an empty id is replaced by a new one. The id actually used is
// returned.
func (m *Manager) Chat(ctx context.Context, id, message string) (string, Reply, error) {
	if id == "" {
		id = m.NewID()
	}
	e := m.acquire(id)
	defer e.mu.Unlock()

	before := e.ctrl.Stage()
	reply, err := e.ctrl.Advance(ctx, message)
	if err != nil {
		return id, Reply{}, err
	}

	turn := types.Turn{
		SessionID: id,
		Stage:     before.String(),
		Input:     message,
		Output:    reply.Text,
	}
	if before == StageAwaitingDetails && e.ctrl.Stage() == StageAwaitingAnswer1 {
		s := e.ctrl.Session()
		turn.Profile = s.Profile
	}
	m.record(ctx, turn)
	return id, reply, nil
}

// Get returns a snapshot of session id. It waits for any call in flight on
// that session.
func (m *Manager) Get(id string) (Session, bool) {
	m.mu.RLock()
	e, ok := m.entries[id]
	m.mu.RUnlock()
	if !ok {
		return Session{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ctrl.Session(), true
}

// Delete forgets session id and reports whether it existed. It waits for
// any call in flight on that session.
func (m *Manager) Delete(id string) bool {
	m.mu.RLock()
	e, ok := m.entries[id]
	m.mu.RUnlock()
	if !ok {
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.entries[id] != e {
		return false
	}
	delete(m.entries, id)
	return true
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Prune drops sessions not used since now-idle and returns how many were
// removed. Sessions with a call in flight are kept.
func (m *Manager) Prune(now time.Time, idle time.Duration) int {
	cutoff := now.Add(-idle).UnixNano()

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, e := range m.entries {
		if e.lastUsed.Load() >= cutoff {
			continue
		}
		if !e.mu.TryLock() {
			continue
		}
		delete(m.entries, id)
		e.mu.Unlock()
		removed++
	}
	if removed > 0 {
		m.log.Info("pruned idle sessions", zap.Int("removed", removed), zap.Int("remaining", len(m.entries)))
	}
	return removed
}

// acquire returns the locked entry for id, creating it if needed. An entry
// removed while the caller waited for its lock is dropped and the lookup
// repeated, so one id never has two live controllers.
func (m *Manager) acquire(id string) *entry {
	for {
		m.mu.Lock()
		e, ok := m.entries[id]
		if !ok {
			e = &entry{ctrl: NewController(id, m.gen, m.opts)}
			m.entries[id] = e
		}
		e.lastUsed.Store(m.opts.Now().UnixNano())
		m.mu.Unlock()

		e.mu.Lock()
		m.mu.RLock()
		live := m.entries[id] == e
		m.mu.RUnlock()
		if live {
			return e
		}
		e.mu.Unlock()
	}
}

func (m *Manager) record(ctx context.Context, turn types.Turn) {
	if m.rec == nil {
		return
	}
	turn.At = m.opts.Now()
	if err := m.rec.RecordTurn(context.WithoutCancel(ctx), turn); err != nil {
		m.log.Warn("recording turn failed", zap.String("session_id", turn.SessionID), zap.Error(err))
	}
}
