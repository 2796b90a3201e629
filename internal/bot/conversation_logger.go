package bot

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"
)

// ConversationLogEvent is one NDJSON line in a user's conversation log.
type ConversationLogEvent struct {
	Timestamp string         `json:"ts"`
	UserID    string         `json:"user_id"`
	ChatID    int64          `json:"chat_id"`
	LookupID  string         `json:"lookup_id,omitempty"`
	Direction string         `json:"direction"` // "inbound" or "outbound"
	EventType string         `json:"event_type"`
	Content   string         `json:"content,omitempty"`
	Meta      map[string]any `json:"meta,omitempty"`
}

// ConversationLogger records conversation events.
type ConversationLogger interface {
	Log(event ConversationLogEvent)
	Close() error
}

// ConversationLogConfig configures the file-backed logger.
type ConversationLogConfig struct {
	Enabled   bool
	Dir       string
	QueueSize int
}

type noopConversationLogger struct{}

func (noopConversationLogger) Log(ConversationLogEvent) {}
func (noopConversationLogger) Close() error             { return nil }

// fileConversationLogger appends events to <dir>/<user>.ndjson from a single
// background goroutine. Each event opens and closes its file, so no handle
// outlives a write. Events are dropped when the queue is full.
type fileConversationLogger struct {
	fs     afero.Fs
	dir    string
	logger *slog.Logger

	queue chan ConversationLogEvent
	done  chan struct{}

	mu     sync.RWMutex
	closed bool
}

// NewConversationLogger returns a logger writing through fs, or a no-op
// logger when logging is disabled.
func NewConversationLogger(cfg ConversationLogConfig, fs afero.Fs, logger *slog.Logger) (ConversationLogger, error) {
	if !cfg.Enabled {
		return noopConversationLogger{}, nil
	}
	if cfg.Dir == "" {
		return nil, errors.New("conversation log dir is empty")
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1000
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := fs.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create conversation log dir: %w", err)
	}

	l := &fileConversationLogger{
		fs:     fs,
		dir:    cfg.Dir,
		logger: logger,
		queue:  make(chan ConversationLogEvent, cfg.QueueSize),
		done:   make(chan struct{}),
	}
	go l.run()
	return l, nil
}

func (l *fileConversationLogger) Log(event ConversationLogEvent) {
	if event.Timestamp == "" {
		event.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return
	}
	select {
	case l.queue <- event:
	default:
		l.logger.Warn("Conversation log queue full, dropping event",
			"user_id", event.UserID,
			"event_type", event.EventType,
		)
	}
}

// Close stops accepting events and waits for the queue to drain.
func (l *fileConversationLogger) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	close(l.queue)
	l.mu.Unlock()

	<-l.done
	return nil
}

func (l *fileConversationLogger) run() {
	defer close(l.done)
	for event := range l.queue {
		if err := l.write(event); err != nil {
			l.logger.Error("Failed to write conversation log", "user_id", event.UserID, "error", err)
		}
	}
}

func (l *fileConversationLogger) write(event ConversationLogEvent) (err error) {
	line, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	path := filepath.Join(l.dir, safeFileName(event.UserID)+".ndjson")
	f, err := l.fs.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close log file: %w", closeErr)
		}
	}()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	return nil
}

// safeFileName keeps ASCII letters, digits, '-' and '_'.
func safeFileName(s string) string {
	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return -1
		}
	}, s)
	if clean == "" {
		return "unknown"
	}
	return clean
}
