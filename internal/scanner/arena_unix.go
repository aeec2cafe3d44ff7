//go:build unix

package scanner

import (
	"golang.org/x/sys/unix"
)

// newArena allocates a page-aligned arena via an anonymous mmap and marks
// its trailing page read-only, per spec.md's Design Notes option (a) — but
// only when bufsz is itself a multiple of the system page size, which is
// the only geometry where buftop (at offset bufsz from a page-aligned
// mapping base) lands on a page boundary and a whole-page mprotect can
// cover the sentinel without also touching writable working-buffer bytes.
// Smaller or oddly-sized buffers (as used to exercise boundary conditions,
// see spec.md §5's environment override) fall back to the plain arena.
func newArena(bufsz int, delim byte) (*arena, error) {
	pgsz := unix.Getpagesize()
	if bufsz <= 0 {
		bufsz = pgsz
	}
	if bufsz%pgsz != 0 {
		return newPlainArena(bufsz, pgsz, delim), nil
	}

	total := bufsz + pgsz
	full, err := unix.Mmap(-1, 0, total, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, ErrAllocFailure
	}

	a := &arena{full: full, cap: bufsz, pgsz: pgsz}
	a.setDelim(delim)

	if err := unix.Mprotect(full[bufsz:], unix.PROT_READ); err != nil {
		_ = unix.Munmap(full)
		return nil, ErrProtectFailure
	}

	a.release = func() error {
		if err := unix.Mprotect(full[bufsz:], unix.PROT_READ|unix.PROT_WRITE); err != nil {
			return err
		}
		return unix.Munmap(full)
	}
	return a, nil
}
