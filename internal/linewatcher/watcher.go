// Package linewatcher periodically walks a set of include/exclude patterns
// and reports files as they appear or disappear, identifying each one by
// the configured fingerprint strategy so a rotation or restart doesn't
// register as a brand-new file.
package linewatcher

import (
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/loykin/linescan/internal/linetracker"
)

// Watcher drives a polling discovery loop.
type Watcher struct {
	cfg            Config
	callback       func(id, path string)
	removeCallback func(id string)
	stopCh         chan struct{}
	doneCh         chan struct{}
}

// New builds a Watcher over cfg, calling cb when a new file is discovered
// and removeCb (which may be nil) when a previously tracked file vanishes.
func New(cfg Config, cb func(id, path string), removeCb func(id string)) (*Watcher, error) {
	paths := deriveScanRoots(cfg.Include)
	for i := range paths {
		for j := range paths {
			if i == j {
				continue
			}
			if isSubPath(filepath.Clean(paths[i]), filepath.Clean(paths[j])) {
				return nil, errPathOverlap(paths[i], paths[j])
			}
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Watcher{
		cfg:            cfg,
		callback:       cb,
		removeCallback: removeCb,
		stopCh:         make(chan struct{}),
		doneCh:         make(chan struct{}),
	}, nil
}

func errPathOverlap(sub, base string) error {
	return &overlapError{sub: sub, base: base}
}

type overlapError struct{ sub, base string }

func (e *overlapError) Error() string {
	return "overlapping watch paths: " + e.sub + " is subpath of " + e.base
}

// Start begins the polling loop in a background goroutine, scanning once
// immediately and then every cfg.PollInterval.
func (w *Watcher) Start() {
	ticker := time.NewTicker(w.cfg.PollInterval)
	go func() {
		defer func() {
			ticker.Stop()
			close(w.doneCh)
		}()

		w.scan()
		for {
			select {
			case <-w.stopCh:
				return
			case <-ticker.C:
				w.scan()
			}
		}
	}()
}

// Stop signals the polling loop to exit without waiting for it.
func (w *Watcher) Stop() {
	select {
	case <-w.stopCh:
	default:
		close(w.stopCh)
	}
}

// StopAndWait stops the loop and blocks until it has exited.
func (w *Watcher) StopAndWait() {
	w.Stop()
	<-w.doneCh
}

func (w *Watcher) computeFileID(p string, info fs.FileInfo) (string, bool) {
	if info == nil || info.Size() == 0 {
		return "", false
	}
	switch w.cfg.FingerprintStrategy {
	case linetracker.FingerprintStrategyChecksum:
		id, err := linetracker.GetFileFingerprintFromPath(p, int64(w.cfg.FingerprintSize))
		if linetracker.IsFileSizeTooSmall(err) {
			return "", false
		} else if err != nil {
			slog.Warn("failed to fingerprint file", "path", p, "error", err)
			return "", false
		}
		return id, true
	case linetracker.FingerprintStrategyDeviceAndInode:
		id, err := linetracker.GetFileID(info)
		if err != nil {
			slog.Warn("failed to get file id", "path", p, "error", err)
			return "", false
		}
		return id, true
	default:
		slog.Error("unsupported fingerprint strategy", "strategy", w.cfg.FingerprintStrategy)
		return "", false
	}
}

func (w *Watcher) scan() {
	existing := make(map[string]bool)
	hasSpecific := hasSpecificIncludes(w.cfg.Include)
	roots := deriveScanRoots(w.cfg.Include)

	for _, root := range roots {
		err := filepath.Walk(root, func(p string, info fs.FileInfo, err error) error {
			if err != nil {
				slog.Warn("failed to walk", "path", p, "error", err)
				return nil
			}
			if info != nil && info.IsDir() {
				return nil
			}
			if len(w.cfg.Include) > 0 && !pathIncluded(p, w.cfg.Include, hasSpecific) {
				return nil
			}
			if len(w.cfg.Exclude) > 0 && pathExcluded(p, w.cfg.Exclude) {
				return nil
			}

			id, ok := w.computeFileID(p, info)
			if !ok {
				return nil
			}
			existing[id] = true

			if w.cfg.Tracker.Get(id) == nil {
				w.cfg.Tracker.Add(id, p, w.cfg.FingerprintStrategy, int64(w.cfg.FingerprintSize))
				w.callback(id, p)
			}
			return nil
		})
		if err != nil {
			slog.Error("failed to walk path", "path", root, "error", err)
		}
	}

	for id := range w.cfg.Tracker.All() {
		if !existing[id] {
			if w.removeCallback != nil {
				w.removeCallback(id)
			}
			w.cfg.Tracker.Remove(id)
		}
	}
}

func hasSpecificIncludes(includes []string) bool {
	for _, pattern := range includes {
		cp := filepath.Clean(pattern)
		if hasMeta(cp) {
			return true
		}
		fi, err := statOrNil(cp)
		if err != nil {
			return true
		}
		if !fi.IsDir() {
			return true
		}
	}
	return false
}

func pathIncluded(p string, includes []string, hasSpecific bool) bool {
	base := filepath.Base(p)
	for _, pattern := range includes {
		cleanPat := filepath.Clean(pattern)
		if !hasMeta(cleanPat) {
			if fi, err := statOrNil(cleanPat); err == nil && fi.IsDir() {
				if !hasSpecific && isSubPath(p, cleanPat) {
					return true
				}
			} else if filepath.Clean(p) == cleanPat || filepath.Base(p) == cleanPat {
				return true
			}
			continue
		}
		if ok, _ := filepath.Match(cleanPat, base); ok {
			return true
		}
		if ok, _ := filepath.Match(cleanPat, p); ok {
			return true
		}
	}
	return false
}

func pathExcluded(p string, excludes []string) bool {
	base := filepath.Base(p)
	for _, pattern := range excludes {
		if ok, _ := filepath.Match(pattern, base); ok {
			return true
		}
		if ok, _ := filepath.Match(pattern, p); ok {
			return true
		}
	}
	return false
}
