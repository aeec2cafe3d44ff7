package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetupLogging_EmptyFileLeavesDefaultLogger(t *testing.T) {
	before := slog.Default()
	setupLogging(LogConfig{})
	assert.Same(t, before, slog.Default())
}

func TestSetupLogging_FileRoutesThroughLumberjack(t *testing.T) {
	defer slog.SetDefault(slog.Default())

	dir := t.TempDir()
	logPath := filepath.Join(dir, "linescan.log")
	setupLogging(LogConfig{File: logPath, MaxSizeMB: 10, MaxBackups: 1, MaxAgeDays: 1})

	slog.Info("hello from test")

	data, err := os.ReadFile(logPath)
	assert.NoError(t, err)
	assert.Contains(t, string(data), "hello from test")
}
