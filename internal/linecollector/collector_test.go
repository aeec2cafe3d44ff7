package linecollector

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/loykin/linescan/internal/lineagg"
	"github.com/loykin/linescan/internal/linetracker"
	"github.com/loykin/linescan/internal/recordsink/common"
	"github.com/stretchr/testify/assert"
	_ "modernc.org/sqlite"
)

// recordingSink implements common.Sink by appending every enqueued
// record's line to a slice, guarded by a mutex.
type recordingSink struct {
	mu    sync.Mutex
	lines []string
}

func (s *recordingSink) Enqueue(r common.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = append(s.lines, string(r.Line))
}

func (s *recordingSink) Stop() error { return nil }

func (s *recordingSink) snapshot() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.lines))
	copy(out, s.lines)
	return out
}

func TestCollector_DeviceAndInodeStrategy(t *testing.T) {
	tempDir := t.TempDir()
	testFile := filepath.Join(tempDir, "test.txt")
	assert.NoError(t, os.WriteFile(testFile, []byte("line1\nline2\nline3\n"), 0o644))

	sink := &recordingSink{}
	cfg := Default()
	cfg.Include = []string{tempDir}
	cfg.PollInterval = 100 * time.Millisecond
	cfg.StoreOffsets = false
	cfg.Sink = sink

	c, err := New(cfg)
	assert.NoError(t, err)

	c.Start()
	time.Sleep(2 * time.Second)

	assert.Contains(t, sink.snapshot(), "line1")
	assert.Contains(t, sink.snapshot(), "line2")
	assert.Contains(t, sink.snapshot(), "line3")

	f, err := os.OpenFile(testFile, os.O_APPEND|os.O_WRONLY, 0o644)
	assert.NoError(t, err)
	_, err = f.WriteString("line4\nline5\n")
	assert.NoError(t, err)
	assert.NoError(t, f.Close())

	time.Sleep(2 * time.Second)
	assert.Contains(t, sink.snapshot(), "line4")
	assert.Contains(t, sink.snapshot(), "line5")

	c.Stop()
}

func TestCollector_MultipleFiles(t *testing.T) {
	tempDir := t.TempDir()
	for i, fname := range []string{"file1.txt", "file2.txt", "file3.txt"} {
		content := []byte(fmt.Sprintf("content%d-1\ncontent%d-2\n", i+1, i+1))
		assert.NoError(t, os.WriteFile(filepath.Join(tempDir, fname), content, 0o644))
	}

	sink := &recordingSink{}
	cfg := Default()
	cfg.Include = []string{tempDir}
	cfg.WorkerCount = 2
	cfg.PollInterval = 100 * time.Millisecond
	cfg.StoreOffsets = false
	cfg.Sink = sink

	c, err := New(cfg)
	assert.NoError(t, err)
	c.Start()

	deadline := time.After(3 * time.Second)
waitLoop:
	for {
		if len(sink.snapshot()) >= 6 {
			break
		}
		select {
		case <-deadline:
			break waitLoop
		default:
			time.Sleep(50 * time.Millisecond)
		}
	}
	c.Stop()

	lines := sink.snapshot()
	assert.Contains(t, lines, "content1-1")
	assert.Contains(t, lines, "content2-1")
	assert.Contains(t, lines, "content3-1")
	assert.Contains(t, lines, "content1-2")
	assert.Contains(t, lines, "content2-2")
	assert.Contains(t, lines, "content3-2")
}

func TestCollector_InvalidFingerprintStrategy(t *testing.T) {
	cfg := Default()
	cfg.Include = []string{t.TempDir()}
	cfg.FingerprintStrategy = "invalid"
	cfg.Sink = &recordingSink{}

	_, err := New(cfg)
	assert.Error(t, err)
}

func TestCollector_ChecksumStrategyRequiresSize(t *testing.T) {
	cfg := Default()
	cfg.Include = []string{t.TempDir()}
	cfg.FingerprintStrategy = linetracker.FingerprintStrategyChecksum
	cfg.FingerprintSize = 0
	cfg.Sink = &recordingSink{}

	_, err := New(cfg)
	assert.Error(t, err)
}

func TestCollector_NilSinkRejected(t *testing.T) {
	cfg := Default()
	cfg.Include = []string{t.TempDir()}
	_, err := New(cfg)
	assert.Error(t, err)
}

func TestCollector_OffsetPersistence(t *testing.T) {
	tempDir := t.TempDir()
	dbPath := filepath.Join(tempDir, "offsets.db")
	testFile := filepath.Join(tempDir, "offset_test.txt")
	assert.NoError(t, os.WriteFile(testFile, []byte("line1\nline2\nline3\n"), 0o644))

	{
		sink := &recordingSink{}
		cfg := Default()
		cfg.Include = []string{tempDir}
		cfg.PollInterval = 100 * time.Millisecond
		cfg.DBPath = dbPath
		cfg.StoreOffsets = true
		cfg.Sink = sink

		c, err := New(cfg)
		assert.NoError(t, err)
		c.Start()
		time.Sleep(1 * time.Second)
		assert.Contains(t, sink.snapshot(), "line1")
		c.Stop()

		db, err := sql.Open("sqlite", dbPath)
		assert.NoError(t, err)
		var count int
		assert.NoError(t, db.QueryRow("SELECT COUNT(*) FROM offsets").Scan(&count))
		assert.Equal(t, 1, count)
		_ = db.Close()
	}

	f, err := os.OpenFile(testFile, os.O_APPEND|os.O_WRONLY, 0o644)
	assert.NoError(t, err)
	_, err = f.WriteString("line4\nline5\n")
	assert.NoError(t, err)
	assert.NoError(t, f.Close())

	{
		sink := &recordingSink{}
		cfg := Default()
		cfg.Include = []string{tempDir}
		cfg.PollInterval = 100 * time.Millisecond
		cfg.DBPath = dbPath
		cfg.StoreOffsets = true
		cfg.Sink = sink

		c, err := New(cfg)
		assert.NoError(t, err)
		c.Start()
		time.Sleep(2 * time.Second)
		c.Stop()

		lines := sink.snapshot()
		assert.NotContains(t, lines, "line1")
		assert.NotContains(t, lines, "line2")
		assert.NotContains(t, lines, "line3")
		assert.Contains(t, lines, "line4")
		assert.Contains(t, lines, "line5")
	}
}

func TestCollector_FileRemovalClearsOffset(t *testing.T) {
	tempDir := t.TempDir()
	dbPath := filepath.Join(tempDir, "cleanup.db")
	testFile := filepath.Join(tempDir, "remove.txt")
	assert.NoError(t, os.WriteFile(testFile, []byte("line1\nline2\n"), 0o644))

	sink := &recordingSink{}
	cfg := Default()
	cfg.Include = []string{tempDir}
	cfg.PollInterval = 100 * time.Millisecond
	cfg.DBPath = dbPath
	cfg.StoreOffsets = true
	cfg.Sink = sink

	c, err := New(cfg)
	assert.NoError(t, err)
	c.Start()
	time.Sleep(1 * time.Second)
	assert.Contains(t, sink.snapshot(), "line1")

	assert.NoError(t, os.Remove(testFile))
	time.Sleep(2 * time.Second)
	c.Stop()

	db, err := sql.Open("sqlite", dbPath)
	assert.NoError(t, err)
	defer func() { _ = db.Close() }()
	var count int
	assert.NoError(t, db.QueryRow("SELECT COUNT(*) FROM offsets").Scan(&count))
	assert.Equal(t, 0, count)
}

func TestCollector_MultilineFoldsStackTraces(t *testing.T) {
	tempDir := t.TempDir()
	testFile := filepath.Join(tempDir, "app.log")
	content := "ERROR boom\n  at frame1\n  at frame2\nINFO done\n"
	assert.NoError(t, os.WriteFile(testFile, []byte(content), 0o644))

	sink := &recordingSink{}
	cfg := Default()
	cfg.Include = []string{tempDir}
	cfg.PollInterval = 100 * time.Millisecond
	cfg.StoreOffsets = false
	cfg.Sink = sink
	cfg.Multiline = &lineagg.Config{
		Mode:             lineagg.ModeContinueThrough,
		StartPattern:     `^(ERROR|INFO)`,
		ConditionPattern: `^\s`,
		Timeout:          200 * time.Millisecond,
	}

	c, err := New(cfg)
	assert.NoError(t, err)
	c.Start()
	time.Sleep(1500 * time.Millisecond)
	c.Stop()

	lines := sink.snapshot()
	assert.Contains(t, lines, "ERROR boom\n  at frame1\n  at frame2")
	assert.Contains(t, lines, "INFO done")
}

func TestCollector_IncludeExcludeFilters(t *testing.T) {
	tempDir := t.TempDir()
	for _, fname := range []string{"log1.txt", "log2.log", "data.json"} {
		content := []byte(fmt.Sprintf("content in %s\n", fname))
		assert.NoError(t, os.WriteFile(filepath.Join(tempDir, fname), content, 0o644))
	}

	sink := &recordingSink{}
	cfg := Default()
	cfg.Include = []string{tempDir}
	cfg.Exclude = []string{"*.log"}
	cfg.PollInterval = 100 * time.Millisecond
	cfg.StoreOffsets = false
	cfg.Sink = sink

	c, err := New(cfg)
	assert.NoError(t, err)
	c.Start()
	time.Sleep(2 * time.Second)
	c.Stop()

	var foundTxt, foundJSON bool
	for _, line := range sink.snapshot() {
		if strings.Contains(line, "log1.txt") {
			foundTxt = true
		}
		if strings.Contains(line, "data.json") {
			foundJSON = true
		}
		assert.NotContains(t, line, "log2.log")
	}
	assert.True(t, foundTxt)
	assert.True(t, foundJSON)
}
