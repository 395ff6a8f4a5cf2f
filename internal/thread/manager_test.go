package thread

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashureev/eventplanner/internal/cache"
	"github.com/ashureev/eventplanner/internal/domain"
	"github.com/ashureev/eventplanner/internal/identity"
	"github.com/ashureev/eventplanner/internal/remote"
	"github.com/ashureev/eventplanner/internal/render"
)

type reply struct {
	text string
	err  error
}

type fakeGenerator struct {
	mu       sync.Mutex
	requests []remote.GenerateRequest
	replies  []reply
	started  chan struct{}
	release  chan struct{}
}

func (f *fakeGenerator) Generate(ctx context.Context, req remote.GenerateRequest) (string, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	var r reply
	if len(f.replies) > 0 {
		r = f.replies[0]
		f.replies = f.replies[1:]
	}
	started, release := f.started, f.release
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return r.text, r.err
}

func (f *fakeGenerator) last() remote.GenerateRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func (f *fakeGenerator) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func weddingDraft() domain.EventDraft {
	return domain.EventDraft{
		EventType: "Wedding",
		Date:      "2024-06-01",
		Duration:  "1 day",
		Guests:    domain.Count(200),
		Budget:    domain.Count(500000),
		Location:  "Mumbai",
		Culture:   "Indian",
	}
}

func newReadyManager(t *testing.T, gen *fakeGenerator, c cache.Cache) *Manager {
	t.Helper()
	ctx := context.Background()
	m := New(gen, c, identity.Static("user-1"))
	require.NoError(t, m.SetDraft(ctx, weddingDraft()))
	_, err := m.StartInitial(ctx)
	require.NoError(t, err)
	require.Equal(t, StateReady, m.Status().State)
	return m
}

func TestStartInitialSuccess(t *testing.T) {
	gen := &fakeGenerator{replies: []reply{{text: "**Overview**\n- Book venue"}}}
	m := New(gen, nil, identity.Static("user-1"))
	require.NoError(t, m.SetDraft(context.Background(), weddingDraft()))

	res, err := m.StartInitial(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Blocks, 2)
	assert.Equal(t, render.KindBoldHeading, res.Blocks[0].Kind)

	req := gen.last()
	assert.Equal(t, domain.ChatTypeInitial, req.ChatType)
	assert.Equal(t, "user-1", req.UserID)
	assert.Equal(t, m.Status().SessionID, req.ChatSessionID)
	require.NotNil(t, req.EventDraft)
	assert.Equal(t, "Wedding", req.EventDraft.EventType)
	assert.Contains(t, req.Prompt, "Mumbai")

	th := m.Thread()
	assert.Equal(t, req.Prompt, th.InitialPrompt)
	assert.Equal(t, "**Overview**\n- Book venue", th.InitialResponse)

	st := m.Status()
	assert.Equal(t, StateReady, st.State)
	assert.False(t, st.Loading)
}

func TestStartInitialEmptyResult(t *testing.T) {
	gen := &fakeGenerator{replies: []reply{{text: ""}}}
	m := New(gen, nil, nil)

	res, err := m.StartInitial(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Blocks, 1)
	assert.Equal(t, NoPlanText, res.Blocks[0].Text)
	assert.Equal(t, NoPlanText, m.Thread().InitialResponse)
	assert.Equal(t, StateReady, m.Status().State)
	assert.Empty(t, gen.last().UserID)
}

func TestStartInitialFailure(t *testing.T) {
	gen := &fakeGenerator{replies: []reply{{err: errors.New("connection refused")}}}
	m := New(gen, nil, identity.Static("u"))

	res, err := m.StartInitial(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Blocks, 1)
	assert.Equal(t, InitialErrorText, res.Blocks[0].Text)
	assert.Equal(t, StateIdle, m.Status().State)
	assert.Empty(t, m.Thread().InitialPrompt)

	_, err = m.AskFollowUp(context.Background(), "still there?")
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestStartInitialTimeout(t *testing.T) {
	gen := &fakeGenerator{release: make(chan struct{})}
	m := New(gen, nil, nil, WithTimeout(20*time.Millisecond))

	res, err := m.StartInitial(context.Background())
	require.NoError(t, err)
	assert.Equal(t, InitialErrorText, res.Blocks[0].Text)
	assert.Equal(t, StateIdle, m.Status().State)
}

func TestStartInitialOnlyFromIdle(t *testing.T) {
	gen := &fakeGenerator{replies: []reply{{text: "plan"}}}
	m := newReadyManager(t, gen, nil)

	_, err := m.StartInitial(context.Background())
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestStartInitialClearsRestoredTurns(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemory()
	require.NoError(t, c.Save(ctx, cache.Snapshot{
		Draft: &domain.EventDraft{EventType: "party"},
		Turns: []domain.Turn{{Question: "old", Answer: "old"}},
	}))

	gen := &fakeGenerator{replies: []reply{{text: "plan"}}}
	m := New(gen, c, nil)
	require.NoError(t, m.Restore(ctx))
	assert.Equal(t, "party", m.Draft().EventType)
	assert.Len(t, m.Thread().Turns, 1)
	assert.Equal(t, StateIdle, m.Status().State)

	_, err := m.StartInitial(ctx)
	require.NoError(t, err)
	assert.Empty(t, m.Thread().Turns)

	snap, err := c.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, snap.Turns)
}

func TestAskFollowUpBlankIsNoOp(t *testing.T) {
	gen := &fakeGenerator{replies: []reply{{text: "plan"}}}
	m := newReadyManager(t, gen, nil)

	for _, q := range []string{"", "   ", "\t\n"} {
		turn, err := m.AskFollowUp(context.Background(), q)
		assert.NoError(t, err)
		assert.Nil(t, turn)
	}
	assert.Equal(t, 0, m.Status().Turns)
	assert.Equal(t, 1, gen.count())
}

func TestAskFollowUpBeforeInitial(t *testing.T) {
	m := New(&fakeGenerator{}, nil, nil)
	_, err := m.AskFollowUp(context.Background(), "hello?")
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestAskFollowUpUsesOriginalContext(t *testing.T) {
	gen := &fakeGenerator{replies: []reply{
		{text: "initial plan"},
		{text: "answer one"},
		{text: "answer two"},
	}}
	m := newReadyManager(t, gen, nil)
	initialPrompt := m.Thread().InitialPrompt
	ctx := context.Background()

	_, err := m.AskFollowUp(ctx, "first?")
	require.NoError(t, err)
	turn, err := m.AskFollowUp(ctx, "second?")
	require.NoError(t, err)
	assert.Equal(t, "answer two", turn.Answer)

	req := gen.last()
	assert.Equal(t, domain.ChatTypeFollowUp, req.ChatType)
	assert.Nil(t, req.EventDraft)
	assert.Equal(t, "second?", req.FollowUp)
	assert.Equal(t, initialPrompt, req.PrevPrompt)
	assert.Equal(t, "initial plan", req.PrevResponse)
	assert.Equal(t, "user-1", req.UserID)
	assert.Equal(t, m.Status().SessionID, req.ChatSessionID)
}

func TestAskFollowUpAppendOnly(t *testing.T) {
	gen := &fakeGenerator{replies: []reply{{text: "plan"}}}
	for i := 0; i < 6; i++ {
		if i%2 == 0 {
			gen.replies = append(gen.replies, reply{text: fmt.Sprintf("answer %d", i)})
		} else {
			gen.replies = append(gen.replies, reply{err: errors.New("bad gateway")})
		}
	}
	c := cache.NewMemory()
	m := newReadyManager(t, gen, c)
	ctx := context.Background()

	questions := []string{"  padded  ", "why?", "Café menu?", "a|b", "**bold**", "last"}
	for _, q := range questions {
		turn, err := m.AskFollowUp(ctx, q)
		require.NoError(t, err)
		require.NotNil(t, turn)
	}

	turns := m.Thread().Turns
	require.Len(t, turns, len(questions))
	for i, q := range questions {
		assert.Equal(t, q, turns[i].Question)
		if i%2 == 0 {
			assert.Equal(t, fmt.Sprintf("answer %d", i), turns[i].Answer)
		} else {
			assert.Equal(t, FollowUpErrorText, turns[i].Answer)
		}
	}
	assert.Equal(t, StateReady, m.Status().State)

	snap, err := c.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, turns, snap.Turns)
}

func TestConcurrentGenerationIsBusy(t *testing.T) {
	gen := &fakeGenerator{replies: []reply{{text: "plan"}}, started: make(chan struct{}), release: make(chan struct{})}
	m := New(gen, nil, nil)
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = m.StartInitial(ctx)
	}()
	<-gen.started

	st := m.Status()
	assert.True(t, st.Loading)
	assert.Equal(t, StateGeneratingInitial, st.State)

	_, err := m.StartInitial(ctx)
	assert.ErrorIs(t, err, ErrBusy)
	_, err = m.AskFollowUp(ctx, "now?")
	assert.ErrorIs(t, err, ErrBusy)

	close(gen.release)
	<-done
	assert.Equal(t, StateReady, m.Status().State)
}

func TestResetDiscardsInFlightGeneration(t *testing.T) {
	gen := &fakeGenerator{replies: []reply{{text: "plan"}}, started: make(chan struct{}), release: make(chan struct{})}
	c := cache.NewMemory()
	m := New(gen, c, nil)
	ctx := context.Background()
	require.NoError(t, m.SetDraft(ctx, weddingDraft()))
	oldID := m.Status().SessionID

	errCh := make(chan error, 1)
	go func() {
		_, err := m.StartInitial(ctx)
		errCh <- err
	}()
	<-gen.started

	require.NoError(t, m.Reset(ctx))
	close(gen.release)
	assert.ErrorIs(t, <-errCh, ErrReset)

	st := m.Status()
	assert.Equal(t, StateIdle, st.State)
	assert.NotEqual(t, oldID, st.SessionID)
	assert.True(t, m.Draft().IsZero())
	assert.Empty(t, m.Thread().InitialResponse)

	snap, err := c.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, snap.Draft)
	assert.Nil(t, snap.Turns)
}

func TestSaveQueuedBeforeResetLeavesCacheCleared(t *testing.T) {
	c := cache.NewMemory()
	m := New(nil, c, nil)
	ctx := context.Background()
	require.NoError(t, m.SetDraft(ctx, weddingDraft()))

	// A write whose mutation finished before Reset but whose save runs after it.
	m.mu.Lock()
	epoch := m.epoch
	m.mu.Unlock()
	require.NoError(t, m.Reset(ctx))
	assert.ErrorIs(t, m.persist(ctx, epoch), ErrReset)

	snap, err := c.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, snap.Draft)

	require.NoError(t, m.SetField(ctx, "location", "Goa"))
	snap, err = c.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, snap.Draft)
	assert.Equal(t, "Goa", snap.Draft.Location)
	assert.Empty(t, snap.Draft.EventType)
}

func TestResetFromReady(t *testing.T) {
	gen := &fakeGenerator{replies: []reply{{text: "plan"}, {text: "a"}}}
	m := newReadyManager(t, gen, nil)
	_, err := m.AskFollowUp(context.Background(), "q")
	require.NoError(t, err)

	require.NoError(t, m.Reset(context.Background()))
	assert.Equal(t, Status{State: StateIdle, SessionID: m.Status().SessionID}, m.Status())
	assert.Empty(t, m.Thread().Turns)
}

func TestSetFieldWritesThrough(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemory()
	m := New(nil, c, nil)

	require.NoError(t, m.SetField(ctx, "guests", "45"))
	require.NoError(t, m.SetField(ctx, "location", "Goa"))
	assert.Error(t, m.SetField(ctx, "colour", "blue"))

	snap, err := c.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, snap.Draft)
	assert.Equal(t, domain.Count(45), snap.Draft.Guests)
	assert.Equal(t, "Goa", snap.Draft.Location)
}

func TestWithSessionID(t *testing.T) {
	m := New(nil, nil, nil, WithSessionID("fixed"))
	assert.Equal(t, "fixed", m.Status().SessionID)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "generating-follow-up", StateGeneratingFollowUp.String())
	assert.Equal(t, "unknown", State(42).String())
}
