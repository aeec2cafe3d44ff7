package common

import (
	"log/slog"
	"sync"
	"time"

	"github.com/loykin/linescan/internal/metrics"
)

// Batcher provides buffering, timing, and stop coordination shared by
// every sink backend.
type Batcher struct {
	Ch            chan Record
	BatchSize     int
	BatchInterval time.Duration
	filter        *filter
	Wg            sync.WaitGroup
	StopOnce      sync.Once
	StopCh        chan struct{}
}

// NewBatcher builds a Batcher with the given batch size, flush interval,
// and include/exclude substring filters.
func NewBatcher(size int, interval time.Duration, includes, excludes []string) Batcher {
	return Batcher{
		Ch:            make(chan Record, size*2),
		BatchSize:     size,
		BatchInterval: interval,
		filter:        newFilter(includes, excludes),
		StopCh:        make(chan struct{}),
	}
}

// Enqueue submits r for batching. It drops r silently if r fails the
// filter, and drops it with a warning and a sink-error metric bump if the
// channel is saturated.
func (b *Batcher) Enqueue(r Record) {
	if !b.filter.allow(r.Line) {
		return
	}
	select {
	case b.Ch <- r:
	default:
		slog.Warn("sink buffer full; dropping record", "path", r.Path)
		metrics.IncSinkErrors()
	}
}

// Drain empties whatever is currently buffered in Ch without blocking.
// select has no readiness-order guarantee between StopCh and Ch, so a
// shutdown loop that only reacts to StopCh can otherwise discard records
// that were enqueued just before Stop was called; callers must drain Ch
// on the StopCh branch before their final flush.
func (b *Batcher) Drain() []Record {
	var out []Record
	for {
		select {
		case r := <-b.Ch:
			out = append(out, r)
		default:
			return out
		}
	}
}
