package linecollector

import (
	"errors"
	"time"

	"github.com/loykin/linescan/internal/lineagg"
	"github.com/loykin/linescan/internal/linetracker"
	"github.com/loykin/linescan/internal/recordsink/common"
)

// Config configures a Collector end to end: discovery, per-file scanning,
// offset persistence and the sink completed records are handed to.
type Config struct {
	WorkerCount         int
	Delim               byte
	BufSize             int
	PollInterval        time.Duration
	FingerprintStrategy linetracker.FingerprintStrategy
	FingerprintSize     int
	Include             []string
	Exclude             []string
	DBPath              string
	StoreOffsets        bool
	Sink                common.Sink
	// Multiline, when non-nil, folds consecutive records from each file
	// into multiline records before they reach Sink.
	Multiline *lineagg.Config
}

// Default returns a Config tuned the way the rest of the package defaults:
// device-and-inode fingerprinting, newline delimiting, a 32KiB working
// buffer per file, and offsets persisted to ./linescan.db.
func Default() Config {
	return Config{
		WorkerCount:         1,
		Delim:               '\n',
		BufSize:             32 * 1024,
		PollInterval:        100 * time.Millisecond,
		FingerprintStrategy: linetracker.FingerprintStrategyDeviceAndInode,
		DBPath:              "linescan.db",
		StoreOffsets:        true,
	}
}

// Validate checks the collector configuration and the discovery options
// it hands to the watcher.
func (c Config) Validate() error {
	if c.WorkerCount <= 0 {
		return errors.New("linecollector: worker count must be > 0")
	}
	if c.BufSize <= 0 {
		return errors.New("linecollector: buf size must be > 0")
	}
	if c.Sink == nil {
		return errors.New("linecollector: sink must not be nil")
	}
	switch c.FingerprintStrategy {
	case linetracker.FingerprintStrategyDeviceAndInode:
	case linetracker.FingerprintStrategyChecksum:
		if c.FingerprintSize <= 0 {
			return errors.New("linecollector: fingerprint size must be > 0 for checksum strategy")
		}
	default:
		return errors.New("linecollector: unsupported fingerprint strategy: " + string(c.FingerprintStrategy))
	}
	if c.Multiline != nil {
		if err := c.Multiline.Validate(); err != nil {
			return err
		}
	}
	return nil
}
