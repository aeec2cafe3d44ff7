// Package common holds the Sink interface and the batching/filtering
// machinery shared by every recordsink backend.
package common

import "github.com/loykin/linescan/internal/scanner"

// Record is one unit of sink payload: a scanner result's bytes plus the
// context a backend needs to label it.
type Record struct {
	Tag  scanner.Tag
	Line []byte
	Path string
}

// Sink is the minimal interface a record-forwarding backend implements.
type Sink interface {
	Enqueue(r Record)
	Stop() error
}
