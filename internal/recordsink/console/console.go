// Package console implements a recordsink backend that writes records to
// an io.Writer (stdout or stderr), one line per record.
package console

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/loykin/linescan/internal/metrics"
	"github.com/loykin/linescan/internal/recordsink/common"
)

type sink struct {
	batcher common.Batcher
	w       io.Writer
}

// New returns a console sink writing to stdout or stderr depending on
// stream ("stdout", the default, or "stderr").
func New(stream string, batchSize int, batchInterval time.Duration, includes, excludes []string) common.Sink {
	w := io.Writer(os.Stdout)
	if stream == "stderr" {
		w = os.Stderr
	}
	s := &sink{batcher: common.NewBatcher(batchSize, batchInterval, includes, excludes), w: w}
	s.start()
	return s
}

func (s *sink) start() {
	s.batcher.Wg.Add(1)
	go func() {
		defer s.batcher.Wg.Done()
		buf := make([]common.Record, 0, s.batcher.BatchSize)
		ticker := time.NewTicker(s.batcher.BatchInterval)
		defer ticker.Stop()
		flush := func() {
			for _, r := range buf {
				_, _ = fmt.Fprintf(s.w, "%s\t%s\t%s\n", r.Tag, r.Path, r.Line)
			}
			metrics.IncSinkRecords(len(buf))
			buf = buf[:0]
		}
		for {
			select {
			case <-s.batcher.StopCh:
				buf = append(buf, s.batcher.Drain()...)
				flush()
				return
			case <-ticker.C:
				flush()
			case r := <-s.batcher.Ch:
				buf = append(buf, r)
				if len(buf) >= s.batcher.BatchSize {
					flush()
				}
			}
		}
	}()
}

func (s *sink) Enqueue(r common.Record) { s.batcher.Enqueue(r) }

func (s *sink) Stop() error {
	s.batcher.StopOnce.Do(func() { close(s.batcher.StopCh) })
	s.batcher.Wg.Wait()
	return nil
}
