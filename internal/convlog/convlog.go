// Package convlog records every prompt and response as NDJSON, one line per
// exchange, in a size-rotated file.
package convlog

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ashureev/eventplanner/internal/config"
	"github.com/ashureev/eventplanner/internal/domain"
)

const queueSize = 256

// Event is one logged exchange.
type Event struct {
	Timestamp     time.Time       `json:"timestamp"`
	UserID        string          `json:"userId,omitempty"`
	ChatSessionID string          `json:"chatSessionId"`
	ChatType      domain.ChatType `json:"chatType"`
	Provider      string          `json:"provider,omitempty"`
	Prompt        string          `json:"prompt"`
	Response      string          `json:"response,omitempty"`
	Error         string          `json:"error,omitempty"`
	DurationMS    int64           `json:"durationMs"`
}

// Logger accepts conversation events.
type Logger interface {
	Log(ev Event)
	Close() error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Log(Event)    {}
func (Nop) Close() error { return nil }

// FileLogger writes events asynchronously to a rotated file. Events that
// arrive while the queue is full are dropped with a warning.
type FileLogger struct {
	out    *lumberjack.Logger
	queue  chan Event
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// New returns a FileLogger, or Nop when logging is disabled.
func New(cfg config.ConversationLogConfig, logger *slog.Logger) (Logger, error) {
	if !cfg.Enabled {
		return Nop{}, nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
		return nil, fmt.Errorf("create conversation log directory: %w", err)
	}

	l := &FileLogger{
		out: &lumberjack.Logger{
			Filename:   cfg.Path,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		},
		queue:  make(chan Event, queueSize),
		logger: logger,
		done:   make(chan struct{}),
	}
	go l.run()
	return l, nil
}

// Log enqueues ev without blocking.
func (l *FileLogger) Log(ev Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return
	}
	select {
	case l.queue <- ev:
	default:
		l.logger.Warn("Conversation log queue full, dropping event", "chat_session_id", ev.ChatSessionID)
	}
}

func (l *FileLogger) run() {
	defer close(l.done)
	for ev := range l.queue {
		line, err := json.Marshal(ev)
		if err != nil {
			l.logger.Warn("Failed to encode conversation event", "error", err)
			continue
		}
		line = append(line, '\n')
		if _, err := l.out.Write(line); err != nil {
			l.logger.Warn("Failed to write conversation event", "error", err)
		}
	}
}

// Close drains the queue and closes the file.
func (l *FileLogger) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	close(l.queue)
	l.mu.Unlock()

	<-l.done
	return l.out.Close()
}
