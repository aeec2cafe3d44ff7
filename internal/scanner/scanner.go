// Package scanner implements the line-oriented input scanner core: a
// fixed-capacity buffered reader over an already-open input handle that
// yields delimiter-terminated records by reference into its own buffer.
//
// A Scanner owns its arena exclusively and borrows the caller's handle; the
// caller remains responsible for closing it. Every exported method is
// intended to be driven from a single goroutine — see the package's
// concurrency notes in the Scanner doc comment.
package scanner

import "io"

// Tag identifies the variant of a Result.
type Tag int

const (
	// FullLine is a complete delimiter-terminated record; End is the
	// position of the delimiter byte itself.
	FullLine Tag = iota
	// FullLineWithoutDelimiter is the final record of a stream that ended
	// on a non-delimiter byte.
	FullLineWithoutDelimiter
	// LongLineStart is the first chunk of a record longer than the
	// scanner's capacity minus whatever headroom the shift policy reserves.
	LongLineStart
	// LongLineChunk is an intermediate or terminating-data chunk of an
	// overlong record.
	LongLineChunk
	// LongLineEnd marks that no more chunks of the current overlong
	// record will follow. It carries no data.
	LongLineEnd
	// Paused indicates the scanner would otherwise have invalidated bytes
	// the caller is still holding; call Resume to release them.
	Paused
	// EndOfFile indicates the input is exhausted.
	EndOfFile
	// Error indicates the underlying read failed; Err holds the cause.
	Error
)

func (t Tag) String() string {
	switch t {
	case FullLine:
		return "FullLine"
	case FullLineWithoutDelimiter:
		return "FullLineWithoutDelimiter"
	case LongLineStart:
		return "LongLineStart"
	case LongLineChunk:
		return "LongLineChunk"
	case LongLineEnd:
		return "LongLineEnd"
	case Paused:
		return "Paused"
	case EndOfFile:
		return "EndOfFile"
	case Error:
		return "Error"
	default:
		return "Unknown"
	}
}

// Result is the tagged value Getline returns. Begin and End are inclusive
// byte offsets into the Scanner's working buffer (see Scanner.Slice),
// meaningful only for FullLine, FullLineWithoutDelimiter, LongLineStart and
// LongLineChunk.
type Result struct {
	Tag   Tag
	Begin int
	End   int
	Err   error
}

// Len reports the number of bytes in a data-bearing Result. It is zero for
// tags that carry no data (LongLineEnd, Paused, EndOfFile, Error).
func (r Result) Len() int {
	switch r.Tag {
	case FullLine, FullLineWithoutDelimiter, LongLineStart, LongLineChunk:
		return r.End - r.Begin + 1
	default:
		return 0
	}
}

// Scanner is one buffered reader over one input handle. The zero value is
// not usable; construct with Open.
//
// Scheduling model: single-threaded and synchronous. Getline is the sole
// mutator of cursors, long-line state and the cached search hint;
// EnablePause/DisablePause/Resume are the sole mutators of the pause
// flags. Calling Getline concurrently with itself (or with the pause
// toggles) on the same Scanner is undefined — callers must serialize their
// own access, exactly as the package's non-goals describe.
type Scanner struct {
	handle io.Reader
	delim  byte
	arena  *arena

	p, q int // [buf,p) surrendered; [p,q) buffered, unreturned; [q,buftop) free

	eofSeen     bool
	errSeen     bool
	errReported bool
	readErr     error

	inLongline     bool
	longlineEnded  bool
	min1stchunk    int
	pauseOnInval   bool
	terminateCurrentPause bool

	hintP, hintQ int // memoized search(p) is valid only while p==hintP && q==hintQ
	hintD        int

	closed bool
}

// Open acquires a fixed-capacity arena sized to bufsz (subject to the
// environment override of EnableBufferSizeOverride) and returns a Scanner
// ready to read from handle, splitting records on delim.
//
// handle is borrowed: Open never reads from it until the first Getline
// call, and Close never closes it.
func Open(handle io.Reader, bufsz int, delim byte) (*Scanner, error) {
	bufsz = effectiveBufsz(bufsz)
	a, err := newArena(bufsz, delim)
	if err != nil {
		return nil, err
	}
	return &Scanner{
		handle:      handle,
		delim:       delim,
		arena:       a,
		min1stchunk: a.cap,
		hintP:       -1,
	}, nil
}

// Close releases the arena. The caller's input handle is not closed. Every
// byte range previously surrendered by Getline is invalidated.
func (s *Scanner) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.arena.release()
}

// Slice returns the bytes of a data-bearing Result. The caller may mutate
// those bytes but must not read or write outside [r.Begin, r.End] while the
// Scanner may still act on them (see the Paused/Resume borrow discipline).
func (s *Scanner) Slice(r Result) []byte {
	if r.Len() == 0 {
		return nil
	}
	return s.arena.working()[r.Begin : r.End+1]
}

// Cap reports the Scanner's working-buffer capacity (the effective bufsz
// after any environment override applied at Open).
func (s *Scanner) Cap() int { return s.arena.cap }
