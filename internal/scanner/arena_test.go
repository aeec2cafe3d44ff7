package scanner

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewArena_SentinelStamped(t *testing.T) {
	a, err := newArena(64, '\n')
	assert.NoError(t, err)
	defer func() { assert.NoError(t, a.release()) }()

	assert.Equal(t, 64, a.cap)
	assert.Equal(t, byte('\n'), a.full[a.cap])
	assert.Len(t, a.working(), 64)
}

func TestNewArena_ZeroBufszFallsBackToPageSize(t *testing.T) {
	a, err := newArena(0, '\n')
	assert.NoError(t, err)
	defer func() { assert.NoError(t, a.release()) }()

	assert.Equal(t, a.pgsz, a.cap)
}

func TestNewArena_OddSizedCapacityStillBoundsSearch(t *testing.T) {
	// bufsz deliberately not a multiple of the page size: arena_unix.go
	// falls back to the plain (non-mprotect'd) arena here, but the
	// sentinel byte must still bound search() regardless of path taken.
	a, err := newArena(7, '\n')
	assert.NoError(t, err)
	defer func() { assert.NoError(t, a.release()) }()

	assert.Equal(t, 7, a.cap)
	d := search(a, 0, '\n')
	assert.Equal(t, 7, d, "with no delimiter written, search must land on the sentinel at cap")
}

func TestSearch_FindsDelimiterWithinRange(t *testing.T) {
	a, err := newArena(16, '\n')
	assert.NoError(t, err)
	defer func() { assert.NoError(t, a.release()) }()

	copy(a.working(), "abc\ndef")
	d := search(a, 0, '\n')
	assert.Equal(t, 3, d)
	d = search(a, 4, '\n')
	assert.Equal(t, 16, d, "no further delimiter before the sentinel")
}

func TestOpen_SetsUpEmptyScanner(t *testing.T) {
	s, err := Open(strings.NewReader("x"), 32, '\n')
	assert.NoError(t, err)
	defer s.Close()

	assert.Equal(t, 32, s.Cap())
	assert.Equal(t, 0, s.p)
	assert.Equal(t, 0, s.q)
	assert.False(t, s.inLongline)
	assert.False(t, s.eofSeen)
	assert.False(t, s.errSeen)
	assert.Equal(t, 32, s.GetMinFirstChunk())
}

func TestClose_ReleasesArenaAndIsIdempotent(t *testing.T) {
	s, err := Open(strings.NewReader(""), 16, '\n')
	assert.NoError(t, err)
	assert.NoError(t, s.Close())
	assert.NoError(t, s.Close())
}
