package linetracker

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/loykin/linescan/internal/scanner"
)

// GetFileFingerprintFromPath opens path and fingerprints its first maxBytes.
func GetFileFingerprintFromPath(path string, maxBytes int64) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("cannot open file: %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()
	return GetFileFingerprint(file, maxBytes)
}

// GetFileFingerprint hashes the first maxBytes of file's content. Files
// smaller than maxBytes return a FileSizeTooSmallError so the caller (the
// watcher) can skip fingerprinting until the file has grown enough to
// distinguish it reliably from a truncated-and-rewritten replacement.
func GetFileFingerprint(file *os.File, maxBytes int64) (string, error) {
	info, err := file.Stat()
	if err != nil {
		return "", err
	}
	if info.Size() < maxBytes {
		return "", &FileSizeTooSmallError{Expected: maxBytes, Actual: info.Size()}
	}

	var reader io.Reader = file
	if maxBytes > 0 {
		reader = io.LimitReader(file, maxBytes)
	}

	hash := sha256.New()
	if _, err := io.Copy(hash, reader); err != nil {
		return "", errors.New("failed to compute hash: " + err.Error())
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}

// GetFileFingerprintUntilNRecordsFromPath opens path and fingerprints up to
// the n-th delim-terminated record.
func GetFileFingerprintUntilNRecordsFromPath(path string, delim byte, n int) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("cannot open file: %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	return GetFileFingerprintUntilNRecords(f, delim, n)
}

// GetFileFingerprintUntilNRecords hashes from the start of file through and
// including the n-th delimiter-terminated record that fits in the scanner's
// 32 KiB buffer, driving the package's own scanner rather than a bespoke
// buffer search. Records longer than the buffer are hashed without their
// delimiter and do not count toward n. If the file ends before n records
// are seen it returns a NotEnoughRecordsError.
func GetFileFingerprintUntilNRecords(file *os.File, delim byte, n int) (string, error) {
	if n <= 0 {
		return "", errors.New("record count must be > 0")
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", err
	}

	s, err := scanner.Open(file, 32*1024, delim)
	if err != nil {
		return "", err
	}
	defer func() { _ = s.Close() }()

	hash := sha256.New()
	seen := 0
	for {
		r := s.Getline()
		switch r.Tag {
		case scanner.FullLine:
			hash.Write(s.Slice(r))
			seen++
			if seen == n {
				return hex.EncodeToString(hash.Sum(nil)), nil
			}
		case scanner.LongLineStart, scanner.LongLineChunk:
			hash.Write(s.Slice(r))
		case scanner.LongLineEnd, scanner.FullLineWithoutDelimiter:
			// no delimiter reached yet for this record; keep reading
		case scanner.EndOfFile:
			return "", &NotEnoughRecordsError{Expected: n, Actual: seen, Delim: delim}
		case scanner.Error:
			return "", r.Err
		}
	}
}
