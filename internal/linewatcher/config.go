package linewatcher

import (
	"errors"
	"time"

	"github.com/loykin/linescan/internal/linetracker"
)

const DefaultFingerprintSize = 1024

// Config configures a Watcher's discovery pass.
type Config struct {
	PollInterval        time.Duration
	FingerprintStrategy linetracker.FingerprintStrategy
	FingerprintSize     int
	Delim               byte
	Exclude             []string
	Include             []string
	Tracker             *linetracker.LineTracker
}

// Validate checks strategy-specific requirements.
func (c Config) Validate() error {
	switch c.FingerprintStrategy {
	case linetracker.FingerprintStrategyDeviceAndInode:
		return nil
	case linetracker.FingerprintStrategyChecksum:
		if c.FingerprintSize <= 0 {
			return errors.New("fingerprint size must be greater than 0")
		}
		return nil
	default:
		return errors.New("unsupported fingerprint strategy: " + string(c.FingerprintStrategy))
	}
}

// DefaultConfig returns sensible discovery defaults.
func DefaultConfig() Config {
	return Config{
		PollInterval:        2 * time.Second,
		FingerprintStrategy: linetracker.FingerprintStrategyDeviceAndInode,
		FingerprintSize:     DefaultFingerprintSize,
		Delim:               '\n',
		Tracker:             linetracker.New(),
	}
}
