package scanner

// arena is the fixed-capacity backing store for a Scanner: a contiguous
// region of cap+pgsz bytes. full[:cap] is the writable working buffer;
// full[cap] holds a standing copy of the delimiter, the single byte of the
// sentinel page that the unbounded delimiter search actually depends on.
//
// Where the OS supports it and geometry allows it (cap is itself a multiple
// of the page size, so buftop falls on a page boundary), the trailing page
// is additionally mapped read-only at the OS level — see arena_unix.go.
// Otherwise the arena falls back to a plain allocation (arena_other.go, and
// the small-capacity path of arena_unix.go): the sentinel byte still bounds
// the search, it is just not OS-enforced read-only.
type arena struct {
	full    []byte
	cap     int
	pgsz    int
	release func() error
}

// working returns the writable region of the arena.
func (a *arena) working() []byte { return a.full[:a.cap] }

// setDelim stamps the sentinel byte. Safe to call only while the sentinel
// page is writable (i.e. during construction, before newArena makes that
// page read-only).
func (a *arena) setDelim(delim byte) {
	a.full[a.cap] = delim
}

// newPlainArena is the pure-Go fallback shared by every platform: no OS
// page protection, just a sentinel byte at cap to bound the search.
func newPlainArena(cap, pgsz int, delim byte) *arena {
	full := make([]byte, cap+pgsz)
	a := &arena{full: full, cap: cap, pgsz: pgsz}
	a.setDelim(delim)
	a.release = func() error { return nil }
	return a
}
