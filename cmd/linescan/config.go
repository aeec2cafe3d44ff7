package main

import (
	"fmt"
	"os"
	"time"

	"github.com/loykin/linescan/internal/linetracker"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// SinkConfig selects and configures the output backend a Collector hands
// completed records to.
type SinkConfig struct {
	Type          string            `mapstructure:"type"` // console, clickhouse, opensearch
	BatchSize     int               `mapstructure:"batch_size"`
	BatchInterval time.Duration     `mapstructure:"batch_interval"`
	Include       []string          `mapstructure:"include"`
	Exclude       []string          `mapstructure:"exclude"`
	Host          string            `mapstructure:"host"`
	Labels        map[string]string `mapstructure:"labels"`

	Console struct {
		Stream string `mapstructure:"stream"`
	} `mapstructure:"console"`

	ClickHouse struct {
		Addr     string `mapstructure:"addr"`
		Database string `mapstructure:"database"`
		Table    string `mapstructure:"table"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
	} `mapstructure:"clickhouse"`

	OpenSearch struct {
		URL      string `mapstructure:"url"`
		Index    string `mapstructure:"index"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
	} `mapstructure:"opensearch"`
}

// PrometheusConfig configures the optional /metrics HTTP endpoint.
type PrometheusConfig struct {
	Enable bool   `mapstructure:"enable"`
	Addr   string `mapstructure:"addr"`
}

// LogConfig configures where the CLI's own slog output goes. An empty
// File logs to stderr; a non-empty File routes through a rotating
// lumberjack logger instead.
type LogConfig struct {
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// ParserConfig optionally transforms each record before it reaches a sink.
type ParserConfig struct {
	Type            string `mapstructure:"type"` // "", "auditd", "dmesg", "csv"
	DropNonMatching bool   `mapstructure:"drop_non_matching"`

	CSV struct {
		Delimiter       string   `mapstructure:"delimiter"`
		HasHeaders      bool     `mapstructure:"has_headers"`
		Headers         []string `mapstructure:"headers"`
		AutoDetectTypes bool     `mapstructure:"auto_detect_types"`
		TimestampField  string   `mapstructure:"timestamp_field"`
		TimestampFormat string   `mapstructure:"timestamp_format"`
	} `mapstructure:"csv"`
}

// CollectorConfig mirrors internal/linecollector.Config in flag-friendly,
// mapstructure-tagged form.
type CollectorConfig struct {
	Include             []string        `mapstructure:"include"`
	Exclude             []string        `mapstructure:"exclude"`
	PollInterval        time.Duration   `mapstructure:"poll_interval"`
	FingerprintSize     int             `mapstructure:"fingerprint_size"`
	FingerprintStrategy string          `mapstructure:"fingerprint_strategy"`
	WorkerCount         int             `mapstructure:"worker_count"`
	Delim               string          `mapstructure:"delim"`
	BufSize             int             `mapstructure:"buf_size"`
	DBPath              string          `mapstructure:"db_path"`
	StoreOffsets        bool            `mapstructure:"store_offsets"`
	Multiline           MultilineConfig `mapstructure:"multiline"`
}

// MultilineConfig mirrors internal/lineagg.Config. Enable must be set for
// multiline folding to apply; lineagg supplies no defaults of its own, so
// an enabled config needs Mode, both patterns and a positive Timeout.
type MultilineConfig struct {
	Enable           bool          `mapstructure:"enable"`
	Mode             string        `mapstructure:"mode"` // continuePast, continueThrough, haltBefore, haltWith
	StartPattern     string        `mapstructure:"start_pattern"`
	ConditionPattern string        `mapstructure:"condition_pattern"`
	Timeout          time.Duration `mapstructure:"timeout"`
}

// Config is the top-level configuration for the linescan CLI, assembled
// from defaults, an optional config file, environment variables and
// flags, in that order of increasing precedence.
type Config struct {
	Collector  CollectorConfig  `mapstructure:"collector"`
	Sink       SinkConfig       `mapstructure:"sink"`
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
	Parser     ParserConfig     `mapstructure:"parser"`
	Log        LogConfig        `mapstructure:"log"`
}

// DefaultConfig returns a Config with sensible out-of-the-box values: scan
// ./log, device+inode fingerprinting, a console sink and metrics off.
func DefaultConfig() *Config {
	return &Config{
		Collector: CollectorConfig{
			Include:             []string{"./log"},
			PollInterval:        2 * time.Second,
			FingerprintSize:     1024,
			FingerprintStrategy: string(linetracker.FingerprintStrategyDeviceAndInode),
			WorkerCount:         1,
			Delim:               "\n",
			BufSize:             32 * 1024,
			DBPath:              "linescan.db",
			StoreOffsets:        true,
			Multiline: MultilineConfig{
				Timeout: 5 * time.Second,
			},
		},
		Sink: SinkConfig{
			Type:          "console",
			BatchSize:     100,
			BatchInterval: time.Second,
		},
		Prometheus: PrometheusConfig{
			Enable: false,
			Addr:   ":2112",
		},
		Log: LogConfig{
			MaxSizeMB:  100,
			MaxBackups: 5,
			MaxAgeDays: 28,
		},
	}
}

// SetupFlags registers every configurable field as a cobra flag, seeded
// with c's current values as defaults.
func (c *Config) SetupFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&c.Collector.Include, "include", "I", c.Collector.Include, "Include patterns or directories to monitor")
	cmd.Flags().StringSliceVarP(&c.Collector.Exclude, "exclude", "E", c.Collector.Exclude, "Exclude patterns")
	cmd.Flags().DurationVarP(&c.Collector.PollInterval, "poll-interval", "i", c.Collector.PollInterval, "Interval to poll for file changes")
	cmd.Flags().IntVarP(&c.Collector.FingerprintSize, "fingerprint-size", "s", c.Collector.FingerprintSize, "Size of fingerprint for checksum strategy")
	cmd.Flags().StringVarP(&c.Collector.FingerprintStrategy, "fingerprint-strategy", "f", c.Collector.FingerprintStrategy,
		fmt.Sprintf("Fingerprint strategy (%s or %s)", linetracker.FingerprintStrategyChecksum, linetracker.FingerprintStrategyDeviceAndInode))
	cmd.Flags().IntVarP(&c.Collector.WorkerCount, "workers", "w", c.Collector.WorkerCount, "Number of worker goroutines")
	cmd.Flags().StringVar(&c.Collector.Delim, "delim", c.Collector.Delim, "Record delimiter byte")
	cmd.Flags().IntVar(&c.Collector.BufSize, "buf-size", c.Collector.BufSize, "Per-file scanner working buffer size in bytes")
	cmd.Flags().StringVar(&c.Collector.DBPath, "db-path", c.Collector.DBPath, "Path to the offset checkpoint database")
	cmd.Flags().BoolVar(&c.Collector.StoreOffsets, "store-offsets", c.Collector.StoreOffsets, "Persist and restore per-file read offsets")

	cmd.Flags().BoolVar(&c.Collector.Multiline.Enable, "multiline.enable", c.Collector.Multiline.Enable, "Fold consecutive records matching a pattern into one record")
	cmd.Flags().StringVar(&c.Collector.Multiline.Mode, "multiline.mode", c.Collector.Multiline.Mode, "Multiline mode (continuePast, continueThrough, haltBefore, haltWith)")
	cmd.Flags().StringVar(&c.Collector.Multiline.StartPattern, "multiline.start-pattern", c.Collector.Multiline.StartPattern, "Regexp a line must match to start a new multiline record")
	cmd.Flags().StringVar(&c.Collector.Multiline.ConditionPattern, "multiline.condition-pattern", c.Collector.Multiline.ConditionPattern, "Regexp deciding whether a line continues the current record")
	cmd.Flags().DurationVar(&c.Collector.Multiline.Timeout, "multiline.timeout", c.Collector.Multiline.Timeout, "Flush an in-progress multiline record after this much idle time")

	cmd.Flags().StringVar(&c.Sink.Type, "sink.type", c.Sink.Type, "Output sink (console, clickhouse, opensearch)")
	cmd.Flags().IntVar(&c.Sink.BatchSize, "sink.batch-size", c.Sink.BatchSize, "Records to batch before a sink flush")
	cmd.Flags().DurationVar(&c.Sink.BatchInterval, "sink.batch-interval", c.Sink.BatchInterval, "Maximum time between sink flushes")

	cmd.Flags().BoolVar(&c.Prometheus.Enable, "prometheus.enable", c.Prometheus.Enable, "Enable the Prometheus metrics HTTP endpoint")
	cmd.Flags().StringVar(&c.Prometheus.Addr, "prometheus.addr", c.Prometheus.Addr, "Prometheus metrics listen address")

	cmd.Flags().StringVar(&c.Log.File, "log.file", c.Log.File, "Write logs to this file instead of stderr, rotating it via lumberjack")
	cmd.Flags().IntVar(&c.Log.MaxSizeMB, "log.max-size-mb", c.Log.MaxSizeMB, "Rotate the log file once it reaches this size in megabytes")
	cmd.Flags().IntVar(&c.Log.MaxBackups, "log.max-backups", c.Log.MaxBackups, "Number of rotated log files to retain")
	cmd.Flags().IntVar(&c.Log.MaxAgeDays, "log.max-age-days", c.Log.MaxAgeDays, "Days to retain rotated log files")
	cmd.Flags().BoolVar(&c.Log.Compress, "log.compress", c.Log.Compress, "Gzip-compress rotated log files")

	cmd.Flags().StringVar(&c.Parser.Type, "parser.type", c.Parser.Type, "Optional record transform (auditd, dmesg, csv)")
	cmd.Flags().BoolVar(&c.Parser.DropNonMatching, "parser.drop-non-matching", c.Parser.DropNonMatching, "Drop records the parser can't recognize instead of passing them through")
	cmd.Flags().StringVar(&c.Parser.CSV.Delimiter, "parser.csv.delimiter", c.Parser.CSV.Delimiter, "CSV field delimiter")
	cmd.Flags().BoolVar(&c.Parser.CSV.HasHeaders, "parser.csv.has-headers", c.Parser.CSV.HasHeaders, "First CSV line supplies field names")
	cmd.Flags().BoolVar(&c.Parser.CSV.AutoDetectTypes, "parser.csv.auto-detect-types", c.Parser.CSV.AutoDetectTypes, "Convert CSV field strings to bool/int/float/time where they parse")
}

// LoadFromViper merges, in increasing precedence, defaults already set on
// c, an optional config file named by --config or the LINESCAN_CONFIG
// environment variable, LINESCAN_-prefixed environment variables, and
// flags explicitly set on cmd. An environment variable is named after the
// full dotted key (LINESCAN_SINK.TYPE) and is read only for keys that the
// config file or a flag already defines.
func (c *Config) LoadFromViper(cmd *cobra.Command) error {
	v := viper.New()
	v.SetEnvPrefix("LINESCAN")
	v.AutomaticEnv()

	if path, _ := cmd.Flags().GetString("config"); path != "" {
		v.SetConfigFile(path)
	} else if path := os.Getenv("LINESCAN_CONFIG"); path != "" {
		v.SetConfigFile(path)
	}
	if v.ConfigFileUsed() != "" {
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("failed to bind flags: %w", err)
	}
	// Unmarshal may overwrite fields whose flags were set explicitly; restore those.
	saved := map[pflag.Value][]string{}
	cmd.Flags().Visit(func(f *pflag.Flag) {
		saved[f.Value] = []string{f.Value.String()}
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			saved[f.Value] = sv.GetSlice()
		}
	})
	if err := v.Unmarshal(c); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}
	for val, vals := range saved {
		if sv, ok := val.(pflag.SliceValue); ok {
			_ = sv.Replace(vals)
		} else {
			_ = val.Set(vals[0])
		}
	}
	return nil
}

// Validate checks cross-field invariants Viper merging can't express via
// struct tags alone.
func (c *Config) Validate() error {
	switch c.Sink.Type {
	case "console", "clickhouse", "opensearch":
	default:
		return fmt.Errorf("invalid sink.type: %s", c.Sink.Type)
	}
	if c.Sink.Type == "clickhouse" && (c.Sink.ClickHouse.Addr == "" || c.Sink.ClickHouse.Table == "") {
		return fmt.Errorf("sink.clickhouse requires addr and table")
	}
	if c.Sink.Type == "opensearch" && (c.Sink.OpenSearch.URL == "" || c.Sink.OpenSearch.Index == "") {
		return fmt.Errorf("sink.opensearch requires url and index")
	}
	if c.Prometheus.Enable && c.Prometheus.Addr == "" {
		return fmt.Errorf("prometheus.addr must be set when prometheus.enable is true")
	}
	if len(c.Collector.Delim) != 1 {
		return fmt.Errorf("delim must be exactly one byte, got %q", c.Collector.Delim)
	}
	switch c.Parser.Type {
	case "", "auditd", "dmesg", "csv":
	default:
		return fmt.Errorf("invalid parser.type: %s", c.Parser.Type)
	}
	if c.Parser.Type == "csv" && c.Parser.CSV.Delimiter != "" && len(c.Parser.CSV.Delimiter) != 1 {
		return fmt.Errorf("parser.csv.delimiter must be exactly one byte, got %q", c.Parser.CSV.Delimiter)
	}
	if c.Collector.Multiline.Enable {
		switch c.Collector.Multiline.Mode {
		case "continuePast", "continueThrough", "haltBefore", "haltWith":
		default:
			return fmt.Errorf("invalid multiline.mode: %s", c.Collector.Multiline.Mode)
		}
		if c.Collector.Multiline.StartPattern == "" || c.Collector.Multiline.ConditionPattern == "" {
			return fmt.Errorf("multiline.start-pattern and multiline.condition-pattern are required when multiline.enable is true")
		}
	}
	return nil
}
