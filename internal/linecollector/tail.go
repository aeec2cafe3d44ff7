// Package linecollector ties discovery, scanning, offset persistence and
// sinks together into a round-robin, multi-file tailing pipeline.
package linecollector

import (
	"io"
	"os"

	"github.com/loykin/linescan/internal/lineagg"
	"github.com/loykin/linescan/internal/scanner"
)

// countingReader wraps an io.Reader and tracks the total bytes it has
// yielded, letting a tail compute a checkpoint offset without the
// scanner exposing its internal buffer cursors.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// tail is one file under active scanning: its Scanner, identity, the byte
// counter used to compute a resumable offset, and an optional multiline
// aggregator folding its records before they reach a sink.
type tail struct {
	fileID  string
	path    string
	file    *os.File
	counter *countingReader
	scanner *scanner.Scanner
	agg     *lineagg.Aggregator
	base    int64
}

// openTail opens path, seeks to startOffset, and wraps it in a Scanner
// reading bufsz-byte chunks split on delim. When aggCfg is non-nil each
// file gets its own Aggregator, since multiline state does not carry
// across files.
func openTail(fileID, path string, startOffset int64, bufsz int, delim byte, aggCfg *lineagg.Config) (*tail, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if startOffset > 0 {
		if _, err := f.Seek(startOffset, io.SeekStart); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	cr := &countingReader{r: f}
	sc, err := scanner.Open(cr, bufsz, delim)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	t := &tail{fileID: fileID, path: path, file: f, counter: cr, scanner: sc, base: startOffset}
	if aggCfg != nil {
		agg, err := lineagg.New(*aggCfg)
		if err != nil {
			_ = sc.Close()
			_ = f.Close()
			return nil, err
		}
		t.agg = agg
	}
	return t, nil
}

// offset reports the file position this tail has read up through. It can
// run slightly ahead of the last record actually handed to a sink, since
// it counts bytes pulled into the scanner's buffer rather than bytes
// returned by Getline; a restart may therefore re-deliver a few already
// seen records but never loses any.
func (t *tail) offset() int64 { return t.base + t.counter.n }

func (t *tail) close() error {
	_ = t.scanner.Close()
	return t.file.Close()
}
