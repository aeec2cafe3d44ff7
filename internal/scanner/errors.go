package scanner

import "errors"

// ErrAllocFailure is returned by Open when the arena memory cannot be obtained.
var ErrAllocFailure = errors.New("scanner: failed to allocate buffer arena")

// ErrProtectFailure is returned by Open when the sentinel page cannot be
// made read-only.
var ErrProtectFailure = errors.New("scanner: failed to protect sentinel page")

// ErrInvalidConfig is returned by SetMinFirstChunk when len is outside [1, bufsz].
var ErrInvalidConfig = errors.New("scanner: invalid min-first-chunk length")

// ErrClosed is the Err of the Error result that Getline returns on a
// Scanner after Close. Close itself stays idempotent and returns nil.
var ErrClosed = errors.New("scanner: use of closed scanner")
