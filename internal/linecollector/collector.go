package linecollector

import (
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/loykin/linescan/internal/checkpoint"
	"github.com/loykin/linescan/internal/linetracker"
	"github.com/loykin/linescan/internal/linewatcher"
	"github.com/loykin/linescan/internal/metrics"
	"github.com/loykin/linescan/internal/recordsink/common"
	"github.com/loykin/linescan/internal/scanner"
)

// Collector discovers files via a Watcher, tails each with its own
// Scanner round-robin scheduled across cfg.WorkerCount goroutines, and
// forwards every record to cfg.Sink.
type Collector struct {
	cfg       Config
	tracker   *linetracker.LineTracker
	watcher   *linewatcher.Watcher
	store     checkpoint.Store
	scheduler *scheduler

	stopCh   chan struct{}
	workerWg sync.WaitGroup
}

// New wires a Collector from cfg. Discovery does not start until Start is
// called.
func New(cfg Config) (*Collector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Collector{
		cfg:       cfg,
		tracker:   linetracker.New(),
		scheduler: newScheduler(),
		stopCh:    make(chan struct{}),
	}

	if cfg.StoreOffsets {
		store, err := checkpoint.Open(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		c.store = store
	}

	wcfg := linewatcher.DefaultConfig()
	wcfg.PollInterval = cfg.PollInterval
	wcfg.FingerprintStrategy = cfg.FingerprintStrategy
	wcfg.FingerprintSize = cfg.FingerprintSize
	wcfg.Delim = cfg.Delim
	wcfg.Include = cfg.Include
	wcfg.Exclude = cfg.Exclude
	wcfg.Tracker = c.tracker

	w, err := linewatcher.New(wcfg, c.onDiscover, c.onRemove)
	if err != nil {
		if c.store != nil {
			_ = c.store.Close()
		}
		return nil, err
	}
	c.watcher = w
	return c, nil
}

func (c *Collector) onDiscover(id, path string) {
	metrics.IncFilesSeen()

	var offset int64
	if c.store != nil {
		stored, found, err := c.store.Load(id, string(c.cfg.FingerprintStrategy))
		if err != nil {
			slog.Error("failed to load offset", "file", id, "error", err)
		} else if found {
			offset = stored
			metrics.IncRestoredOffsets()
			c.tracker.UpdateOffset(id, offset)
		}
	}

	t, err := openTail(id, path, offset, c.cfg.BufSize, c.cfg.Delim, c.cfg.Multiline)
	if err != nil {
		slog.Error("failed to open tracked file", "file", id, "path", path, "error", err)
		return
	}
	slog.Debug("file added", "file", id, "path", path, "offset", offset)
	metrics.IncActiveFiles()
	c.scheduler.add(t)
}

func (c *Collector) onRemove(id string) {
	if t := c.scheduler.remove(id); t != nil {
		metrics.DecActiveFiles()
		if t.agg != nil {
			t.agg.Flush()
			c.drainAgg(t)
		}
		if err := t.close(); err != nil {
			slog.Warn("failed to close removed file", "file", id, "error", err)
		}
	}
	if c.store != nil && c.cfg.StoreOffsets {
		if err := c.store.Delete(id, string(c.cfg.FingerprintStrategy)); err != nil {
			slog.Error("failed to delete offset", "file", id, "error", err)
		}
	}
}

// Start launches cfg.WorkerCount scanning goroutines and begins the
// watcher's discovery loop.
func (c *Collector) Start() {
	for i := 0; i < c.cfg.WorkerCount; i++ {
		c.workerWg.Add(1)
		go c.worker()
	}
	c.watcher.Start()
}

// Stop halts discovery and every worker, flushes the sink, and closes the
// offset store.
func (c *Collector) Stop() {
	close(c.stopCh)
	c.workerWg.Wait()
	c.watcher.StopAndWait()

	if err := c.cfg.Sink.Stop(); err != nil {
		slog.Error("failed to stop sink", "error", err)
	}
	if c.store != nil {
		if err := c.store.Close(); err != nil {
			slog.Error("failed to close offset store", "error", err)
		}
	}
}

func (c *Collector) worker() {
	defer c.workerWg.Done()

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 100 * time.Millisecond
	bo.MaxInterval = 2 * time.Second
	bo.MaxElapsedTime = 0

	loopCount := 0
	loopLimit := c.scheduler.count()

	for {
		select {
		case <-c.stopCh:
			return
		default:
		}

		if loopCount >= loopLimit {
			select {
			case <-c.stopCh:
				return
			case <-time.After(bo.NextBackOff()):
				loopLimit = c.scheduler.count()
				loopCount = 0
			}
			continue
		}
		loopCount++

		t, ok := c.scheduler.next()
		if !ok {
			continue
		}

		if c.readOnce(t) {
			bo.Reset()
		}
		if t.agg != nil {
			t.agg.CheckTimeout(time.Now())
			c.drainAgg(t)
		}
		c.scheduler.setIdle(t.fileID)
	}
}

// readOnce drains whatever t's Scanner has ready right now, handing
// complete records to the sink and saving progress once it runs out of
// buffered input. It reports whether any record was produced, which the
// worker uses to decide whether to reset its backoff.
func (c *Collector) readOnce(t *tail) bool {
	progressed := false

	for {
		metrics.IncReads()
		r := t.scanner.Getline()

		switch r.Tag {
		case scanner.FullLine, scanner.FullLineWithoutDelimiter:
			line := append([]byte(nil), t.scanner.Slice(r)...)
			metrics.AddBytes(len(line))
			metrics.IncRecords(1)
			if r.Tag == scanner.FullLine {
				line = line[:len(line)-1] // the aggregator and sinks take lines without their delimiter
			}
			if t.agg != nil {
				t.agg.Write(line)
				c.drainAgg(t)
			} else {
				c.cfg.Sink.Enqueue(common.Record{Tag: r.Tag, Line: line, Path: t.path})
			}
			progressed = true
			continue

		case scanner.LongLineStart, scanner.LongLineChunk:
			// Fragments of one oversized line, not complete logical lines;
			// the aggregator's line-folding assumes whole-line input, so
			// these pass straight to the sink.
			line := append([]byte(nil), t.scanner.Slice(r)...)
			metrics.AddBytes(len(line))
			if r.Tag == scanner.LongLineStart {
				metrics.IncLongLines()
			}
			c.cfg.Sink.Enqueue(common.Record{Tag: r.Tag, Line: line, Path: t.path})
			progressed = true
			continue

		case scanner.LongLineEnd:
			continue

		case scanner.EndOfFile:
			metrics.IncEOF()
			c.saveOffset(t)
			return progressed

		case scanner.Error:
			if os.IsNotExist(r.Err) {
				slog.Debug("file vanished", "file", t.fileID, "error", r.Err)
			} else {
				slog.Error("failed to read file", "file", t.fileID, "error", r.Err)
			}
			metrics.IncReadErrors()
			c.saveOffset(t)
			return progressed

		default:
			c.saveOffset(t)
			return progressed
		}
	}
}

// drainAgg forwards every record t.agg currently has ready to cfg.Sink,
// tagging each as a FullLine since a folded multiline record is always a
// complete, delimited logical record.
func (c *Collector) drainAgg(t *tail) {
	for {
		rec, err := t.agg.Read()
		if err != nil {
			return
		}
		c.cfg.Sink.Enqueue(common.Record{Tag: scanner.FullLine, Line: rec, Path: t.path})
	}
}

func (c *Collector) saveOffset(t *tail) {
	off := t.offset()
	c.tracker.UpdateOffset(t.fileID, off)
	if c.store != nil && c.cfg.StoreOffsets {
		if err := c.store.Save(t.fileID, string(c.cfg.FingerprintStrategy), t.path, off); err != nil {
			slog.Error("failed to save offset", "file", t.fileID, "offset", off, "error", err)
		}
	}
}
