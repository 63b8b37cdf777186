// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/essay-brainstormer/pkg/types"
)

// memRecorder keeps turns in memory.
type memRecorder struct {
	mu    sync.Mutex
	turns []types.Turn
	err   error
}

func (r *memRecorder) RecordTurn(_ context.Context, turn types.Turn) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.turns = append(r.turns, turn)
	return r.err
}

func sequentialIDs() func() string {
	var n int32
	return func() string {
		return fmt.Sprintf("id-%d", atomic.AddInt32(&n, 1))
	}
}

func TestManagerStart_AssignsID(t *testing.T) {
	m := NewManager(&scriptedGenerator{}, nil, Options{})
	m.NewID = sequentialIDs()

	id, reply, err := m.Start(context.Background(), "", priya)
	require.NoError(t, err)
	assert.Equal(t, "id-1", id)
	assert.Equal(t, "generated #1", reply.Text)
	assert.False(t, reply.Complete)

	s, ok := m.Get(id)
	require.True(t, ok)
	assert.Equal(t, StageAwaitingAnswer1, s.Stage)
	assert.Equal(t, 1, m.Len())
}

func TestManagerStart_DefaultIDIsUUID(t *testing.T) {
	m := NewManager(&scriptedGenerator{}, nil, Options{})

	id, _, err := m.Start(context.Background(), "", priya)
	require.NoError(t, err)
	assert.Len(t, id, 36)
}

func TestManagerChat_FullFlow(t *testing.T) {
	m := NewManager(&scriptedGenerator{}, nil, Options{})
	ctx := context.Background()

	id, _, err := m.Start(ctx, "abc", priya)
	require.NoError(t, err)
	assert.Equal(t, "abc", id)

	for i, answer := range []string{"story", "lesson", "goal"} {
		gotID, reply, err := m.Chat(ctx, id, answer)
		require.NoError(t, err)
		assert.Equal(t, id, gotID)
		assert.Equal(t, i == 2, reply.Complete)
	}

	s, ok := m.Get(id)
	require.True(t, ok)
	assert.Equal(t, StageCompleted, s.Stage)
	assert.Len(t, s.Answers, 3)

	_, reply, err := m.Chat(ctx, id, "more?")
	require.NoError(t, err)
	assert.Equal(t, Reply{Text: CompletedMessage, Complete: true}, reply)
}

func TestManagerChat_UnknownIDReadsDetails(t *testing.T) {
	m := NewManager(&scriptedGenerator{}, nil, Options{})
	m.NewID = sequentialIDs()
	ctx := context.Background()

	id, reply, err := m.Chat(ctx, "client-chosen", "not enough fields")
	require.NoError(t, err)
	assert.Equal(t, "client-chosen", id)
	assert.Equal(t, MalformedDetailsMessage, reply.Text)

	id, reply, err = m.Chat(ctx, "", "Pramod, IT, AI/ML, MIT")
	require.NoError(t, err)
	assert.Equal(t, "id-1", id)
	assert.Equal(t, "generated #1", reply.Text)

	s, ok := m.Get(id)
	require.True(t, ok)
	assert.Equal(t, "Pramod", s.Profile.Name)
}

func TestManagerStart_RestartsExistingSession(t *testing.T) {
	m := NewManager(&scriptedGenerator{}, nil, Options{})
	ctx := context.Background()

	_, _, err := m.Start(ctx, "abc", priya)
	require.NoError(t, err)
	_, _, err = m.Chat(ctx, "abc", "story")
	require.NoError(t, err)

	_, _, err = m.Start(ctx, "abc", priya)
	require.NoError(t, err)

	s, _ := m.Get("abc")
	assert.Equal(t, StageAwaitingAnswer1, s.Stage)
	assert.Empty(t, s.Answers)
	assert.Equal(t, 1, m.Len())
}

func TestManagerChat_GenerationErrorKeepsStage(t *testing.T) {
	gen := &scriptedGenerator{}
	rec := &memRecorder{}
	m := NewManager(gen, rec, Options{})
	ctx := context.Background()

	_, _, err := m.Start(ctx, "abc", priya)
	require.NoError(t, err)

	gen.failNext = errors.New("backend down")
	_, _, err = m.Chat(ctx, "abc", "story")
	assert.ErrorIs(t, err, ErrGeneration)

	s, _ := m.Get("abc")
	assert.Equal(t, StageAwaitingAnswer1, s.Stage)
	assert.Len(t, rec.turns, 1, "failed turns are not recorded")
}

func TestManagerRecordsTurns(t *testing.T) {
	rec := &memRecorder{}
	m := NewManager(&scriptedGenerator{}, rec, Options{Now: func() time.Time { return time.Unix(100, 0) }})
	ctx := context.Background()

	_, _, err := m.Chat(ctx, "abc", "Pramod, IT, AI/ML, MIT")
	require.NoError(t, err)
	_, _, err = m.Chat(ctx, "abc", "story")
	require.NoError(t, err)

	require.Len(t, rec.turns, 2)
	first := rec.turns[0]
	assert.Equal(t, "abc", first.SessionID)
	assert.Equal(t, "AWAITING_USER_DETAILS", first.Stage)
	assert.Equal(t, "Pramod, IT, AI/ML, MIT", first.Input)
	assert.Equal(t, "generated #1", first.Output)
	require.NotNil(t, first.Profile)
	assert.Equal(t, "Pramod", first.Profile.Name)
	assert.Equal(t, time.Unix(100, 0), first.At)

	second := rec.turns[1]
	assert.Equal(t, "AWAITING_ANSWER_1", second.Stage)
	assert.Equal(t, "story", second.Input)
	assert.Nil(t, second.Profile)
}

func TestManagerRecorderErrorDoesNotFailTurn(t *testing.T) {
	rec := &memRecorder{err: errors.New("disk full")}
	m := NewManager(&scriptedGenerator{}, rec, Options{})

	_, reply, err := m.Start(context.Background(), "abc", priya)
	require.NoError(t, err)
	assert.Equal(t, "generated #1", reply.Text)
	assert.Len(t, rec.turns, 1)
}

func TestManagerDelete(t *testing.T) {
	m := NewManager(&scriptedGenerator{}, nil, Options{})
	_, _, err := m.Start(context.Background(), "abc", priya)
	require.NoError(t, err)

	assert.True(t, m.Delete("abc"))
	assert.False(t, m.Delete("abc"))
	_, ok := m.Get("abc")
	assert.False(t, ok)
	assert.Zero(t, m.Len())
}

func TestManagerPrune(t *testing.T) {
	now := time.Unix(1_000, 0)
	clock := func() time.Time { return now }
	m := NewManager(&scriptedGenerator{}, nil, Options{Now: clock})
	ctx := context.Background()

	_, _, err := m.Start(ctx, "old", priya)
	require.NoError(t, err)
	now = now.Add(time.Hour)
	_, _, err = m.Start(ctx, "new", priya)
	require.NoError(t, err)

	assert.Equal(t, 1, m.Prune(now, 30*time.Minute))
	_, ok := m.Get("old")
	assert.False(t, ok)
	_, ok = m.Get("new")
	assert.True(t, ok)

	assert.Zero(t, m.Prune(now, 30*time.Minute))
}

func TestManager_SameIDIsSerialized(t *testing.T) {
	var inFlight, maxInFlight int32
	gen := generatorFunc(func(context.Context, string) (string, error) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			m := atomic.LoadInt32(&maxInFlight)
			if n <= m || atomic.CompareAndSwapInt32(&maxInFlight, m, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return "q", nil
	})
	m := NewManager(gen, nil, Options{})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := m.Start(ctx, "shared", priya)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&maxInFlight))
	assert.Equal(t, 1, m.Len())
}

func TestManager_DeleteDuringTurnKeepsIDSerialized(t *testing.T) {
	var inFlight, maxInFlight int32
	entered := make(chan struct{}, 4)
	release := make(chan struct{})
	gen := generatorFunc(func(context.Context, string) (string, error) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			m := atomic.LoadInt32(&maxInFlight)
			if n <= m || atomic.CompareAndSwapInt32(&maxInFlight, m, n) {
				break
			}
		}
		entered <- struct{}{}
		<-release
		atomic.AddInt32(&inFlight, -1)
		return "q", nil
	})
	m := NewManager(gen, nil, Options{Timeout: 5 * time.Second})
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _, err := m.Start(ctx, "x", priya)
		assert.NoError(t, err)
	}()
	<-entered

	deleted := make(chan bool, 1)
	wg.Add(2)
	go func() {
		defer wg.Done()
		deleted <- m.Delete("x")
	}()
	go func() {
		defer wg.Done()
		_, _, err := m.Start(ctx, "x", priya)
		assert.NoError(t, err)
	}()

	// Neither the delete nor the second start may get past the running turn.
	select {
	case <-entered:
		t.Fatal("second generation started while the first was running")
	case <-deleted:
		t.Fatal("delete returned while a turn was in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	wg.Wait()

	assert.True(t, <-deleted)
	assert.Equal(t, int32(1), atomic.LoadInt32(&maxInFlight))
	assert.LessOrEqual(t, m.Len(), 1)
}

func TestManager_DistinctIDsRunInParallel(t *testing.T) {
	// Each call waits until both sessions are generating at once. If the
	// manager serialized across ids this would time out.
	var arrived sync.WaitGroup
	arrived.Add(2)
	gen := generatorFunc(func(ctx context.Context, _ string) (string, error) {
		arrived.Done()
		both := make(chan struct{})
		go func() {
			arrived.Wait()
			close(both)
		}()
		select {
		case <-both:
			return "q", nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	})
	m := NewManager(gen, nil, Options{Timeout: 2 * time.Second})
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, id := range []string{"a", "b"} {
		i, id := i, id
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, errs[i] = m.Start(ctx, id, priya)
		}()
	}
	wg.Wait()

	assert.NoError(t, errs[0])
	assert.NoError(t, errs[1])
}
