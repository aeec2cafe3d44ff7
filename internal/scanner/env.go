package scanner

import (
	"log/slog"
	"os"
	"strconv"
	"sync/atomic"
)

// bufszOverrideEnabled gates whether Open honors LINESCAN_BUFSZ. It is
// off by default: the override exists for test harnesses that need to
// force a specific arena geometry without touching call sites, not for
// production tuning.
var bufszOverrideEnabled atomic.Bool

// bufszEnvVar is the environment variable consulted by effectiveBufsz
// once EnableBufferSizeOverride has been called.
const bufszEnvVar = "LINESCAN_BUFSZ"

// EnableBufferSizeOverride turns on LINESCAN_BUFSZ as a process-wide
// testing knob: every subsequent Open call ignores its bufsz argument in
// favor of the environment value, if one is set and parses as a positive
// integer. Intended for exercising the boundary-size scenarios without
// plumbing a size through every call site.
func EnableBufferSizeOverride() { bufszOverrideEnabled.Store(true) }

// DisableBufferSizeOverride restores Open's normal behavior of honoring
// its bufsz argument.
func DisableBufferSizeOverride() { bufszOverrideEnabled.Store(false) }

func effectiveBufsz(requested int) int {
	if !bufszOverrideEnabled.Load() {
		return requested
	}
	raw, ok := os.LookupEnv(bufszEnvVar)
	if !ok {
		return requested
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		slog.Warn("scanner: ignoring malformed buffer size override",
			"env", bufszEnvVar, "value", raw)
		return requested
	}
	return v
}
