// Package thread owns the live planning conversation: the draft, the initial
// generation and the follow-up turns asked against it.
package thread

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ashureev/eventplanner/internal/cache"
	"github.com/ashureev/eventplanner/internal/domain"
	"github.com/ashureev/eventplanner/internal/identity"
	"github.com/ashureev/eventplanner/internal/prompt"
	"github.com/ashureev/eventplanner/internal/remote"
	"github.com/ashureev/eventplanner/internal/render"
)

// Fixed texts shown in place of a generated response.
const (
	NoPlanText        = "No plan found."
	InitialErrorText  = "Error generating event plan."
	FollowUpErrorText = "Error getting answer."
)

// DefaultTimeout bounds a single generation call.
const DefaultTimeout = 2 * time.Minute

var (
	// ErrBusy is returned while a generation is in flight.
	ErrBusy = errors.New("a generation is already in progress")
	// ErrInvalidState is returned when an operation is not valid in the current state.
	ErrInvalidState = errors.New("operation not valid in current state")
	// ErrReset is returned when the session was reset while a generation was in flight.
	ErrReset = errors.New("session was reset during generation")
)

// Generator performs one remote generation call.
type Generator interface {
	Generate(ctx context.Context, req remote.GenerateRequest) (string, error)
}

// Manager holds one live session. All methods are safe for concurrent use;
// generations are mutually exclusive and a second request while one is in
// flight is refused with ErrBusy rather than queued.
type Manager struct {
	gen      Generator
	cache    cache.Cache
	ident    identity.Provider
	compiler *prompt.Compiler
	timeout  time.Duration
	logger   *slog.Logger

	// saveMu orders cache writes so the last write always carries the
	// latest state.
	saveMu sync.Mutex

	mu              sync.Mutex
	state           State
	sessionID       string
	draft           domain.EventDraft
	turns           []domain.Turn
	initialPrompt   string
	initialResponse string
	epoch           uint64
}

// Option configures a Manager.
type Option func(*Manager)

// WithTimeout bounds each generation call.
func WithTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithCompiler replaces the default prompt compiler.
func WithCompiler(c *prompt.Compiler) Option {
	return func(m *Manager) {
		if c != nil {
			m.compiler = c
		}
	}
}

// WithSessionID starts the manager on an existing chat session id.
func WithSessionID(id string) Option {
	return func(m *Manager) {
		if id != "" {
			m.sessionID = id
		}
	}
}

// New creates an idle manager with a fresh chat session id. A nil cache
// keeps state in memory only; a nil identity provider means anonymous.
func New(gen Generator, c cache.Cache, ident identity.Provider, opts ...Option) *Manager {
	if c == nil {
		c = cache.NewMemory()
	}
	if ident == nil {
		ident = identity.Static("")
	}
	m := &Manager{
		gen:       gen,
		cache:     c,
		ident:     ident,
		compiler:  prompt.New(),
		timeout:   DefaultTimeout,
		logger:    slog.Default(),
		state:     StateIdle,
		sessionID: uuid.NewString(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Restore loads the cached draft and turns. The state stays Idle: the
// thread context is not cached, so follow-ups need a new initial generation.
func (m *Manager) Restore(ctx context.Context) error {
	snap, err := m.cache.Load(ctx)
	if err != nil {
		return fmt.Errorf("restore session: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if snap.Draft != nil {
		m.draft = *snap.Draft
	}
	if snap.Turns != nil {
		m.turns = append([]domain.Turn(nil), snap.Turns...)
	}
	m.logger.Debug("Session restored", "chat_session_id", m.sessionID,
		"has_draft", snap.Draft != nil, "turns", len(snap.Turns))
	return nil
}

// Draft returns the current draft.
func (m *Manager) Draft() domain.EventDraft {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.draft
}

// SetDraft replaces the draft and persists it.
func (m *Manager) SetDraft(ctx context.Context, d domain.EventDraft) error {
	m.mu.Lock()
	m.draft = d
	epoch := m.epoch
	m.mu.Unlock()
	return m.persist(ctx, epoch)
}

// SetField sets one draft field by its wire name and persists the draft.
func (m *Manager) SetField(ctx context.Context, name, value string) error {
	m.mu.Lock()
	if err := m.draft.Set(name, value); err != nil {
		m.mu.Unlock()
		return err
	}
	epoch := m.epoch
	m.mu.Unlock()
	return m.persist(ctx, epoch)
}

// StartInitial generates the plan for the current draft. It is only valid
// from Idle. Transport failures are not returned as errors: the result is
// the rendering of InitialErrorText and the manager goes back to Idle.
func (m *Manager) StartInitial(ctx context.Context) (render.Result, error) {
	m.mu.Lock()
	if m.state.generating() {
		m.mu.Unlock()
		return render.Result{}, ErrBusy
	}
	if m.state != StateIdle {
		m.mu.Unlock()
		return render.Result{}, ErrInvalidState
	}

	draft := m.draft
	p := m.compiler.Compile(draft)
	m.state = StateGeneratingInitial
	m.turns = nil
	m.initialPrompt, m.initialResponse = "", ""
	epoch := m.epoch
	sessionID := m.sessionID
	m.mu.Unlock()

	if err := m.persist(ctx, epoch); err != nil && !errors.Is(err, ErrReset) {
		m.logger.Warn("Failed to persist cleared turns", "chat_session_id", sessionID, "error", err)
	}

	userID, _ := m.ident.CurrentUserID()
	req := remote.GenerateRequest{
		EventDraft:    &draft,
		Prompt:        p,
		ChatType:      domain.ChatTypeInitial,
		UserID:        userID,
		ChatSessionID: sessionID,
	}

	start := time.Now()
	text, genErr := m.generate(ctx, req)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.epoch != epoch {
		m.logger.Info("Discarding initial generation after reset", "chat_session_id", sessionID)
		return render.Result{}, ErrReset
	}

	if genErr != nil {
		m.state = StateIdle
		m.logger.Warn("Initial generation failed",
			"user_id", userID, "chat_session_id", sessionID,
			"duration_ms", time.Since(start).Milliseconds(), "error", genErr)
		return render.Render(InitialErrorText), nil
	}

	if text == "" {
		text = NoPlanText
	}
	m.initialPrompt = p
	m.initialResponse = text
	m.state = StateReady
	m.logger.Info("Initial plan generated",
		"user_id", userID, "chat_session_id", sessionID,
		"duration_ms", time.Since(start).Milliseconds(), "response_len", len(text))
	return render.Render(text), nil
}

// AskFollowUp asks question against the initial plan. Blank questions are
// ignored and return (nil, nil). Every accepted question appends exactly one
// turn; a failed call records FollowUpErrorText as its answer.
func (m *Manager) AskFollowUp(ctx context.Context, question string) (*domain.Turn, error) {
	if strings.TrimSpace(question) == "" {
		return nil, nil
	}

	m.mu.Lock()
	if m.state.generating() {
		m.mu.Unlock()
		return nil, ErrBusy
	}
	if m.state != StateReady {
		m.mu.Unlock()
		return nil, ErrInvalidState
	}

	m.state = StateGeneratingFollowUp
	epoch := m.epoch
	sessionID := m.sessionID
	req := remote.GenerateRequest{
		ChatType:      domain.ChatTypeFollowUp,
		ChatSessionID: sessionID,
		FollowUp:      question,
		PrevPrompt:    m.initialPrompt,
		PrevResponse:  m.initialResponse,
	}
	m.mu.Unlock()

	req.UserID, _ = m.ident.CurrentUserID()
	text, genErr := m.generate(ctx, req)

	m.mu.Lock()
	if m.epoch != epoch {
		m.mu.Unlock()
		m.logger.Info("Discarding follow-up after reset", "chat_session_id", sessionID)
		return nil, ErrReset
	}

	answer := text
	if genErr != nil {
		answer = FollowUpErrorText
		m.logger.Warn("Follow-up generation failed",
			"user_id", req.UserID, "chat_session_id", sessionID, "error", genErr)
	}
	turn := domain.Turn{Question: question, Answer: answer}
	m.turns = append(m.turns, turn)
	m.state = StateReady
	m.mu.Unlock()

	if err := m.persist(ctx, epoch); err != nil && !errors.Is(err, ErrReset) {
		m.logger.Warn("Failed to persist follow-up turn", "chat_session_id", sessionID, "error", err)
	}
	return &turn, nil
}

// Reset clears the draft, thread and cache and starts a new chat session
// id. A generation still in flight completes with ErrReset.
func (m *Manager) Reset(ctx context.Context) error {
	m.saveMu.Lock()
	defer m.saveMu.Unlock()

	m.mu.Lock()
	m.epoch++
	m.state = StateIdle
	m.draft = domain.EventDraft{}
	m.turns = nil
	m.initialPrompt, m.initialResponse = "", ""
	old := m.sessionID
	m.sessionID = uuid.NewString()
	m.mu.Unlock()

	m.logger.Info("Session reset", "previous_chat_session_id", old)
	if err := m.cache.Clear(ctx); err != nil {
		return fmt.Errorf("clear session cache: %w", err)
	}
	return nil
}

// Status returns a read-only view for the presentation layer.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Status{
		State:     m.state,
		SessionID: m.sessionID,
		Loading:   m.state.generating(),
		Turns:     len(m.turns),
	}
}

// Thread returns a copy of the conversation so far.
func (m *Manager) Thread() Thread {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Thread{
		InitialPrompt:   m.initialPrompt,
		InitialResponse: m.initialResponse,
		Turns:           append([]domain.Turn(nil), m.turns...),
	}
}

func (m *Manager) generate(ctx context.Context, req remote.GenerateRequest) (string, error) {
	if m.gen == nil {
		return "", errors.New("no generator configured")
	}
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	return m.gen.Generate(ctx, req)
}

func (m *Manager) snapshotLocked() cache.Snapshot {
	d := m.draft
	return cache.Snapshot{
		Draft: &d,
		Turns: append([]domain.Turn{}, m.turns...),
	}
}

// persist saves a snapshot unless a Reset has happened since epoch was
// captured, in which case the cleared cache is left alone.
func (m *Manager) persist(ctx context.Context, epoch uint64) error {
	m.saveMu.Lock()
	defer m.saveMu.Unlock()

	m.mu.Lock()
	if m.epoch != epoch {
		m.mu.Unlock()
		return ErrReset
	}
	snap := m.snapshotLocked()
	m.mu.Unlock()

	if err := m.cache.Save(ctx, snap); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}
