package linetracker

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLineTracker_AddGetUpdateRemove(t *testing.T) {
	tr := New()
	tr.Add("id1", "/var/log/app.log", FingerprintStrategyDeviceAndInode, 0)

	got := tr.Get("id1")
	assert.NotNil(t, got)
	assert.Equal(t, "/var/log/app.log", got.Path)
	assert.Equal(t, int64(0), got.Offset)

	assert.True(t, tr.UpdateOffset("id1", 128))
	assert.Equal(t, int64(128), tr.Get("id1").Offset)
	assert.False(t, tr.UpdateOffset("missing", 1))

	all := tr.All()
	assert.Len(t, all, 1)

	tr.Remove("id1")
	assert.Nil(t, tr.Get("id1"))
}

func TestGetFileFingerprint_TooSmall(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "small.log")
	assert.NoError(t, os.WriteFile(p, []byte("ab"), 0644))

	_, err := GetFileFingerprintFromPath(p, 16)
	assert.True(t, IsFileSizeTooSmall(err))
}

func TestGetFileFingerprintUntilNRecords(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "log.txt")
	assert.NoError(t, os.WriteFile(p, []byte("one\ntwo\nthree\n"), 0644))

	f, err := os.Open(p)
	assert.NoError(t, err)
	defer func() { _ = f.Close() }()

	fp1, err := GetFileFingerprintUntilNRecords(f, '\n', 2)
	assert.NoError(t, err)
	assert.NotEmpty(t, fp1)

	_, err = GetFileFingerprintUntilNRecords(f, '\n', 10)
	assert.True(t, IsNotEnoughRecords(err))
}
