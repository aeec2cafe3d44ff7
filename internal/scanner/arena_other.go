//go:build !unix

package scanner

import "syscall"

// newArena is the pure-Go fallback for platforms without page-protection
// syscalls (spec.md's Design Notes option (b)).
func newArena(bufsz int, delim byte) (*arena, error) {
	pgsz := syscall.Getpagesize()
	if bufsz <= 0 {
		bufsz = pgsz
	}
	return newPlainArena(bufsz, pgsz, delim), nil
}
