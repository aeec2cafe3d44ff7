// Package lineagg groups consecutive scanner records into multiline
// records, e.g. a stack trace's continuation lines folding into the
// exception line that started them.
package lineagg

import (
	"errors"
	"regexp"
	"time"
)

// Mode selects how a record boundary is decided relative to a line
// matching ConditionPattern.
type Mode string

const (
	// ModeContinuePast accumulates while the condition matches, then
	// folds the first non-matching line into the record before closing it.
	ModeContinuePast Mode = "continuePast"
	// ModeContinueThrough accumulates while the condition matches and
	// closes the record on the first non-matching line, which starts the
	// next record.
	ModeContinueThrough Mode = "continueThrough"
	// ModeHaltBefore closes the record as soon as the condition matches,
	// and the matching line starts the next record.
	ModeHaltBefore Mode = "haltBefore"
	// ModeHaltWith folds the matching line into the record before closing
	// it.
	ModeHaltWith Mode = "haltWith"
)

// Config configures an Aggregator.
type Config struct {
	Mode             Mode
	ConditionPattern string
	StartPattern     string
	Timeout          time.Duration
}

func (c Config) Validate() error {
	if c.StartPattern == "" {
		return errors.New("lineagg: start pattern is required")
	}
	if c.ConditionPattern == "" {
		return errors.New("lineagg: condition pattern is required")
	}
	if c.Timeout <= 0 {
		return errors.New("lineagg: timeout must be > 0")
	}
	switch c.Mode {
	case ModeContinuePast, ModeContinueThrough, ModeHaltBefore, ModeHaltWith:
	default:
		return errors.New("lineagg: unsupported mode: " + string(c.Mode))
	}
	return nil
}

// Aggregator folds a stream of individual lines into multiline records.
// It is driven synchronously: Write feeds one line in, Read drains
// whatever records that line completed, and CheckTimeout lets a caller
// that polls periodically (rather than blocking on a channel) flush a
// record that has gone quiet for longer than Config.Timeout.
type Aggregator struct {
	cfg     Config
	re      *regexp.Regexp
	startRe *regexp.Regexp

	buf     []byte
	last    time.Time
	pending [][]byte
}

// New compiles cfg's patterns and returns a ready Aggregator.
func New(cfg Config) (*Aggregator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	re, err := regexp.Compile(cfg.ConditionPattern)
	if err != nil {
		return nil, err
	}
	startRe, err := regexp.Compile(cfg.StartPattern)
	if err != nil {
		return nil, err
	}
	return &Aggregator{cfg: cfg, re: re, startRe: startRe}, nil
}

// Write ingests one logical line, without its delimiter, and updates the
// aggregation state. Completed records become available via Read.
func (a *Aggregator) Write(line []byte) {
	line = append([]byte(nil), line...)

	if len(a.buf) == 0 {
		if a.startRe.Match(line) {
			a.buf = line
			a.last = time.Now()
			return
		}
		a.enqueue(line)
		return
	}

	matches := a.re.Match(line)

	switch a.cfg.Mode {
	case ModeContinuePast:
		a.buf = appendWithNL(a.buf, line)
		a.last = time.Now()
		if !matches {
			a.flushBuf()
		}

	case ModeContinueThrough:
		if matches {
			a.buf = appendWithNL(a.buf, line)
			a.last = time.Now()
			return
		}
		a.flushBuf()
		a.startOrEmit(line)

	case ModeHaltBefore:
		if matches {
			a.flushBuf()
			a.startOrEmit(line)
			return
		}
		a.buf = appendWithNL(a.buf, line)
		a.last = time.Now()

	case ModeHaltWith:
		a.buf = appendWithNL(a.buf, line)
		if matches {
			a.flushBuf()
			return
		}
		a.last = time.Now()
	}
}

func (a *Aggregator) startOrEmit(line []byte) {
	if a.startRe.Match(line) {
		a.buf = line
		a.last = time.Now()
		return
	}
	a.enqueue(line)
}

// CheckTimeout flushes the buffered record if it has been idle for at
// least Config.Timeout as of now. Callers that poll periodically (a
// ticker, a collector's scheduling loop) drive record completion this
// way instead of relying on a background goroutine.
func (a *Aggregator) CheckTimeout(now time.Time) {
	if len(a.buf) > 0 && !a.last.IsZero() && now.Sub(a.last) >= a.cfg.Timeout {
		a.flushBuf()
	}
}

// Read returns the next completed record, or ErrNoRecord if none is
// queued.
func (a *Aggregator) Read() ([]byte, error) {
	if len(a.pending) == 0 {
		return nil, ErrNoRecord
	}
	rec := a.pending[0]
	a.pending = a.pending[1:]
	return rec, nil
}

// Flush closes out whatever record is currently buffered, making it
// available via Read. Callers should call this once on end of input so
// a final in-progress record isn't lost.
func (a *Aggregator) Flush() {
	a.flushBuf()
}

func (a *Aggregator) flushBuf() {
	if len(a.buf) == 0 {
		return
	}
	a.enqueue(a.buf)
	a.buf = nil
}

func (a *Aggregator) enqueue(rec []byte) {
	a.pending = append(a.pending, append([]byte(nil), rec...))
}

func appendWithNL(dst, line []byte) []byte {
	if len(dst) == 0 {
		return append(dst, line...)
	}
	dst = append(dst, '\n')
	return append(dst, line...)
}
