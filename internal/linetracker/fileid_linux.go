//go:build linux

package linetracker

import (
	"fmt"
	"os"
	"syscall"
)

// GetFileID identifies a file by device and inode, so the ID stays the
// same while the file grows and changes when a rotation puts a new file in
// its place.
func GetFileID(info os.FileInfo) (string, error) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return "", fmt.Errorf("failed to get raw stat_t data")
	}
	return fmt.Sprintf("dev:%d-ino:%d", stat.Dev, stat.Ino), nil
}
