package scanner

import "bytes"

// search finds the next delimiter at or after p within the arena.
// Because the sentinel byte at buftop equals the delimiter, the scan is
// guaranteed to terminate at or before buftop without an explicit length
// bound passed in by the caller. The returned index is meaningful only if
// it is strictly less than q; callers must discard matches in [q, buftop].
func search(a *arena, p int, delim byte) int {
	idx := bytes.IndexByte(a.full[p:], delim)
	if idx < 0 {
		// Unreachable given the sentinel invariant; fall back to buftop.
		return a.cap
	}
	return p + idx
}
