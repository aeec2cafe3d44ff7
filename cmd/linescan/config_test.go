package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
)

func TestDefaultConfigAndValidate(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "console", cfg.Sink.Type)
	assert.False(t, cfg.Prometheus.Enable)
	assert.NotEmpty(t, cfg.Collector.Include)
	assert.NotEmpty(t, cfg.Collector.FingerprintStrategy)
	assert.NoError(t, cfg.Validate())
}

func TestValidate_SinkTypes(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Sink.Type = "does-not-exist"
	assert.Error(t, cfg.Validate())

	cfg2 := DefaultConfig()
	cfg2.Sink.Type = "clickhouse"
	assert.Error(t, cfg2.Validate())
	cfg2.Sink.ClickHouse.Addr = "localhost:9000"
	cfg2.Sink.ClickHouse.Table = "records"
	assert.NoError(t, cfg2.Validate())
}

func TestValidate_DelimMustBeOneByte(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Collector.Delim = ""
	assert.Error(t, cfg.Validate())

	cfg.Collector.Delim = "ab"
	assert.Error(t, cfg.Validate())
}

func TestValidate_MultilineRequiresPatterns(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Collector.Multiline.Enable = true
	assert.Error(t, cfg.Validate())

	cfg.Collector.Multiline.Mode = "continueThrough"
	assert.Error(t, cfg.Validate())

	cfg.Collector.Multiline.StartPattern = "^ERROR"
	cfg.Collector.Multiline.ConditionPattern = `^\s`
	assert.NoError(t, cfg.Validate())

	cfg.Collector.Multiline.Mode = "bogus"
	assert.Error(t, cfg.Validate())
}

func TestValidate_CSVParserDelimiter(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Parser.Type = "csv"
	assert.NoError(t, cfg.Validate())

	cfg.Parser.CSV.Delimiter = ";"
	assert.NoError(t, cfg.Validate())

	cfg.Parser.CSV.Delimiter = ";;"
	assert.Error(t, cfg.Validate())
}

func TestLoadFromViper_FlagsOverrideFile(t *testing.T) {
	cfg := DefaultConfig()
	cmd := &cobra.Command{Use: "linescan-test"}
	cmd.Flags().String("config", "", "")
	cfg.SetupFlags(cmd)

	dir := t.TempDir()
	configPath := filepath.Join(dir, "linescan.toml")
	assert.NoError(t, os.WriteFile(configPath, []byte(`
[collector]
fingerprint_strategy = "checksum"

[sink]
type = "console"
`), 0o644))

	assert.NoError(t, cmd.Flags().Set("config", configPath))
	assert.NoError(t, cmd.Flags().Set("fingerprint-strategy", "device_and_inode"))

	assert.NoError(t, cfg.LoadFromViper(cmd))
	assert.Equal(t, "device_and_inode", cfg.Collector.FingerprintStrategy)
	assert.Equal(t, "console", cfg.Sink.Type)
	assert.NoError(t, cfg.Validate())
}
