//go:build darwin

package linetracker

import (
	"fmt"
	"os"
	"syscall"
)

// GetFileID returns a string stable across opens of the same underlying
// file (including through renames) but distinct across rotation, so a
// scanner resuming from a stored offset can tell whether it is still
// looking at the file it thinks it is.
func GetFileID(info os.FileInfo) (string, error) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return "", fmt.Errorf("failed to get raw stat_t data")
	}
	return fmt.Sprintf("dev:%d-ino:%d-btime:%d",
		stat.Dev, stat.Ino, stat.Birthtimespec.Sec), nil
}
