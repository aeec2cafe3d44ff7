package scanner

import "io"

// findDelim locates the next delimiter at or after p, memoizing the result
// against the (p, q) pair it was computed for. Getline calls this at most
// once per cursor state even though several branches below ask "is there a
// delimiter" before deciding what to do about it.
func (s *Scanner) findDelim() int {
	if s.hintP == s.p && s.hintQ == s.q {
		return s.hintD
	}
	d := search(s.arena, s.p, s.delim)
	s.hintP, s.hintQ, s.hintD = s.p, s.q, d
	return d
}

// refill issues a single Read into the free region [q, cap) of the arena.
// A short read just leaves less room than hoped; the state machine
// reassesses on the next pass through the loop and may refill again.
func (s *Scanner) refill() {
	n, err := s.handle.Read(s.arena.working()[s.q:s.arena.cap])
	if n > 0 {
		s.q += n
		s.hintQ = -1 // invalidate the search memo; new bytes may hide the sentinel match
	}
	switch {
	case err == io.EOF:
		s.eofSeen = true
	case err != nil:
		s.errSeen = true
		s.readErr = err
	case n == 0:
		// Some io.Reader implementations signal exhaustion with a plain (0, nil) rather than
		// io.EOF; spec.md §4.4 treats a zero count as eof_seen regardless.
		s.eofSeen = true
	}
}

// shift moves the unread region [p, q) down so that p lands at
// cap - min1stchunk, leaving min1stchunk bytes between p and the top of
// the buffer. When p is already at or below that mark, it moves the region
// all the way down to offset 0 instead. It never moves data past offset 0.
func (s *Scanner) shift() {
	amount := s.p - (s.arena.cap - s.min1stchunk)
	if amount <= 0 {
		amount = s.p
	}
	if amount <= 0 {
		return
	}
	dst := s.arena.working()
	copy(dst[s.p-amount:], dst[s.p:s.q])
	s.p -= amount
	s.q -= amount
	s.hintQ = -1
}

// Getline returns the next record, chunk, or terminal condition from the
// input. It never returns a Result with a nonzero-length slice spanning a
// buffer mutation that would invalidate bytes still owed to the caller;
// see EnablePause.
func (s *Scanner) Getline() Result {
	if s.closed {
		return Result{Tag: Error, Err: ErrClosed}
	}

	for {
		if s.longlineEnded {
			s.longlineEnded = false
			s.inLongline = false
			return Result{Tag: LongLineEnd}
		}

		haveBytes := s.p < s.q
		d := -1
		if haveBytes {
			d = s.findDelim()
		}
		haveDelim := haveBytes && d < s.q
		endOfInput := s.eofSeen || s.errSeen
		haveReadSpace := s.q < s.arena.cap
		haveShiftRoom := s.p > 0

		switch {
		case haveDelim:
			if !s.inLongline {
				r := Result{Tag: FullLine, Begin: s.p, End: d}
				s.p = d + 1
				return r
			}
			if d > s.p {
				r := Result{Tag: LongLineChunk, Begin: s.p, End: d - 1}
				s.p = d + 1
				s.longlineEnded = true
				return r
			}
			s.p = d + 1
			s.longlineEnded = true
			continue

		// Writability corner case (spec.md §4.3): a tail with no
		// trailing delimiter that fills the buffer all the way to
		// buftop must not be handed out as a single terminal record,
		// since the caller would have nowhere to write a synthetic
		// terminator at end+1. Shift first when there's room; when
		// there isn't (p == 0), hold back the final byte so a later
		// call -- after that byte's predecessor chunk makes shift
		// room -- can return it with room above it.
		case endOfInput && haveBytes && s.q == s.arena.cap && haveShiftRoom:
			if s.pauseOnInval && !s.terminateCurrentPause {
				return Result{Tag: Paused}
			}
			s.terminateCurrentPause = false
			s.shift()
			continue

		case endOfInput && haveBytes && s.q == s.arena.cap && s.q-s.p > 1:
			tag := LongLineStart
			if s.inLongline {
				tag = LongLineChunk
			}
			r := Result{Tag: tag, Begin: s.p, End: s.q - 2}
			s.inLongline = true
			s.p = s.q - 1
			return r

		case endOfInput && haveBytes:
			r := Result{Tag: FullLineWithoutDelimiter, Begin: s.p, End: s.q - 1}
			if s.inLongline {
				r.Tag = LongLineChunk
				s.longlineEnded = true
			}
			s.p = s.q
			return r

		case endOfInput && !haveBytes && s.inLongline:
			s.inLongline = false
			return Result{Tag: LongLineEnd}

		case endOfInput && !haveBytes:
			if s.errSeen && !s.errReported {
				s.errReported = true
				return Result{Tag: Error, Err: s.readErr}
			}
			return Result{Tag: EndOfFile}

		case haveReadSpace:
			s.refill()
			continue

		case haveBytes && (s.q-s.p) >= s.min1stchunk && !s.inLongline:
			r := Result{Tag: LongLineStart, Begin: s.p, End: s.q - 1}
			s.p = s.q
			s.inLongline = true
			return r

		case haveBytes && haveShiftRoom:
			if s.pauseOnInval && !s.terminateCurrentPause {
				return Result{Tag: Paused}
			}
			s.terminateCurrentPause = false
			s.shift()
			continue

		case haveBytes:
			// Saturated: q==cap, p==0, still no delimiter. Only reachable
			// once already inside a long line (the branch above claims
			// this state otherwise, since min1stchunk <= cap).
			r := Result{Tag: LongLineChunk, Begin: s.p, End: s.q - 1}
			s.p = s.q
			return r

		default:
			// p == q == cap: buffer fully drained, nothing left to search
			// and no room to read into. Resetting to the empty buffer
			// reclaims the whole arena but reuses the same backing bytes
			// a prior FullLine ending exactly at buftop may still alias.
			if s.pauseOnInval && !s.terminateCurrentPause {
				return Result{Tag: Paused}
			}
			s.terminateCurrentPause = false
			s.p, s.q = 0, 0
			s.hintQ = -1
			continue
		}
	}
}
