// Package linescan provides a simplified, stable root-level API for
// external users.
//
// Instead of importing internal subpackages like
// "github.com/loykin/linescan/internal/scanner", consumers can just:
//
//	import "github.com/loykin/linescan"
//
// and then use linescan.Open and linescan.Result directly.
package linescan

import (
	"io"

	"github.com/loykin/linescan/internal/scanner"
)

// Scanner re-exports scanner.Scanner for root-level usage.
type Scanner = scanner.Scanner

// Result re-exports scanner.Result, the tagged value returned by Getline.
type Result = scanner.Result

// Tag re-exports scanner.Tag, along with the result-variant constants.
type Tag = scanner.Tag

const (
	FullLine                 = scanner.FullLine
	FullLineWithoutDelimiter = scanner.FullLineWithoutDelimiter
	LongLineStart            = scanner.LongLineStart
	LongLineChunk            = scanner.LongLineChunk
	LongLineEnd              = scanner.LongLineEnd
	Paused                   = scanner.Paused
	EndOfFile                = scanner.EndOfFile
	Error                    = scanner.Error
)

// Open constructs a Scanner reading delim-terminated records from handle,
// using a working buffer of bufsz bytes. It is a thin wrapper around
// scanner.Open.
func Open(handle io.Reader, bufsz int, delim byte) (*Scanner, error) {
	return scanner.Open(handle, bufsz, delim)
}

// EnableBufferSizeOverride re-exports scanner.EnableBufferSizeOverride.
func EnableBufferSizeOverride() { scanner.EnableBufferSizeOverride() }

// DisableBufferSizeOverride re-exports scanner.DisableBufferSizeOverride.
func DisableBufferSizeOverride() { scanner.DisableBufferSizeOverride() }
