package bot

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/spf13/afero"
)

func TestConversationLoggerWritesPerUserNDJSON(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	dir := "/logs/conversations"
	logger, err := NewConversationLogger(ConversationLogConfig{
		Enabled:   true,
		Dir:       dir,
		QueueSize: 16,
	}, fs, slog.Default())
	if err != nil {
		t.Fatalf("NewConversationLogger failed: %v", err)
	}

	logger.Log(ConversationLogEvent{
		UserID:    "42",
		ChatID:    42,
		LookupID:  "lookup-1",
		Direction: "inbound",
		EventType: "query",
		Content:   "матрица",
	})
	logger.Log(ConversationLogEvent{
		UserID:    "42",
		Direction: "outbound",
		EventType: "lookup_found",
		Content:   "Матрица",
	})
	if err := logger.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := afero.ReadFile(fs, filepath.Join(dir, "42.ndjson"))
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), data)
	}

	var got ConversationLogEvent
	if err := json.Unmarshal([]byte(lines[0]), &got); err != nil {
		t.Fatalf("failed to unmarshal log line: %v", err)
	}
	if got.Content != "матрица" || got.LookupID != "lookup-1" {
		t.Fatalf("unexpected event: %+v", got)
	}
	if got.Timestamp == "" {
		t.Fatal("expected timestamp to be populated")
	}

	// Events after Close are dropped without panicking.
	logger.Log(ConversationLogEvent{UserID: "42"})
}

func TestConversationLoggerDisabledIsNoop(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	logger, err := NewConversationLogger(ConversationLogConfig{Enabled: false, Dir: "/logs"}, fs, nil)
	if err != nil {
		t.Fatalf("NewConversationLogger failed: %v", err)
	}
	logger.Log(ConversationLogEvent{UserID: "1"})
	if err := logger.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if exists, _ := afero.DirExists(fs, "/logs"); exists {
		t.Fatal("disabled logger must not touch the filesystem")
	}
}

func TestSafeFileName(t *testing.T) {
	cases := map[string]string{
		"12345":     "12345",
		"../../etc": "etc",
		"":          "unknown",
	}
	for in, want := range cases {
		if got := safeFileName(in); got != want {
			t.Fatalf("safeFileName(%q) = %q, want %q", in, got, want)
		}
	}
}

// countingFs tracks how many files are open at once.
type countingFs struct {
	afero.Fs
	open    atomic.Int32
	maxOpen atomic.Int32
}

func (c *countingFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	f, err := c.Fs.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}
	n := c.open.Add(1)
	for {
		m := c.maxOpen.Load()
		if n <= m || c.maxOpen.CompareAndSwap(m, n) {
			break
		}
	}
	return &countedFile{File: f, fs: c}, nil
}

type countedFile struct {
	afero.File
	fs   *countingFs
	once sync.Once
}

func (f *countedFile) Close() error {
	f.once.Do(func() { f.fs.open.Add(-1) })
	return f.File.Close()
}

func TestConversationLoggerDoesNotHoldFilesOpen(t *testing.T) {
	t.Parallel()

	fs := &countingFs{Fs: afero.NewMemMapFs()}
	const users = 500
	logger, err := NewConversationLogger(ConversationLogConfig{
		Enabled:   true,
		Dir:       "/logs",
		QueueSize: users,
	}, fs, slog.Default())
	if err != nil {
		t.Fatalf("NewConversationLogger failed: %v", err)
	}

	for i := 0; i < users; i++ {
		logger.Log(ConversationLogEvent{UserID: strconv.Itoa(i), Direction: "inbound", EventType: "query"})
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if n := fs.open.Load(); n != 0 {
		t.Fatalf("expected no open files after Close, got %d", n)
	}
	if n := fs.maxOpen.Load(); n > 1 {
		t.Fatalf("expected at most one open file at a time, got %d", n)
	}
	entries, err := afero.ReadDir(fs, "/logs")
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != users {
		t.Fatalf("expected %d log files, got %d", users, len(entries))
	}
}
