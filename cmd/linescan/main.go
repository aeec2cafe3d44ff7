package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/loykin/linescan/internal/lineagg"
	"github.com/loykin/linescan/internal/linecollector"
	"github.com/loykin/linescan/internal/linetracker"
	"github.com/loykin/linescan/internal/metrics"
	"github.com/loykin/linescan/internal/recordsink/common"
	"github.com/loykin/linescan/pkg/auditparse"
	"github.com/loykin/linescan/pkg/csvrow"
	"github.com/loykin/linescan/pkg/dmesgparse"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	config := DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "linescan",
		Short: "A buffered line scanner that tails files and forwards records to a sink",
		Long: `linescan watches files for changes, splits their content into
delimiter-terminated records using a fixed-capacity buffered scanner, and
forwards each record to a configured sink.

Examples:
  # Monitor the ./log directory and print to stdout
  linescan

  # Monitor multiple directories with a custom poll interval
  linescan --include ./log,/var/log --poll-interval 5s

  # Use checksum fingerprinting instead of the default device+inode tracking
  linescan --fingerprint-strategy checksum

  # Load settings from a config file
  linescan --config ./config/linescan.toml
`,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.LoadFromViper(cmd); err != nil {
				return err
			}
			if err := config.Validate(); err != nil {
				return err
			}
			setupLogging(config.Log)
			return nil
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			return run(config)
		},
	}

	rootCmd.PersistentFlags().String("config", "", "Path to a config file (TOML/YAML/JSON)")
	config.SetupFlags(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

// setupLogging leaves the default slog logger (which writes to stderr)
// unchanged when cfg.File is empty; otherwise it points the logger at a
// lumberjack.Logger that rotates the file by size, age and backup count.
func setupLogging(cfg LogConfig) {
	if cfg.File == "" {
		return
	}
	writer := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(writer, nil)))
}

func run(config *Config) error {
	stopMetrics := func() error { return nil }
	if config.Prometheus.Enable {
		if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
			return fmt.Errorf("failed to register metrics: %w", err)
		}
		srv, err := metrics.Start(config.Prometheus.Addr)
		if err != nil {
			return fmt.Errorf("failed to start prometheus endpoint: %w", err)
		}
		stopMetrics = srv.Stop
	}

	sink, err := buildSink(config)
	if err != nil {
		_ = stopMetrics()
		return fmt.Errorf("failed to build sink: %w", err)
	}

	cfg := linecollector.Config{
		Include:             config.Collector.Include,
		Exclude:             config.Collector.Exclude,
		PollInterval:        config.Collector.PollInterval,
		FingerprintSize:     config.Collector.FingerprintSize,
		FingerprintStrategy: linetracker.FingerprintStrategy(config.Collector.FingerprintStrategy),
		WorkerCount:         config.Collector.WorkerCount,
		Delim:               config.Collector.Delim[0],
		BufSize:             config.Collector.BufSize,
		DBPath:              config.Collector.DBPath,
		StoreOffsets:        config.Collector.StoreOffsets,
		Sink:                wrapWithParser(sink, config.Parser),
		Multiline:           buildMultilineConfig(config.Collector.Multiline),
	}

	c, err := linecollector.New(cfg)
	if err != nil {
		_ = sink.Stop()
		_ = stopMetrics()
		return fmt.Errorf("failed to create collector: %w", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	c.Start()
	fmt.Println("Running... Press Ctrl+C to stop")
	<-sigCh

	fmt.Println("Shutting down...")
	c.Stop()
	return stopMetrics()
}

// buildMultilineConfig returns nil when multiline folding isn't enabled,
// so linecollector.Config.Multiline stays nil and every file tails
// without a per-file aggregator.
func buildMultilineConfig(cfg MultilineConfig) *lineagg.Config {
	if !cfg.Enable {
		return nil
	}
	return &lineagg.Config{
		Mode:             lineagg.Mode(cfg.Mode),
		StartPattern:     cfg.StartPattern,
		ConditionPattern: cfg.ConditionPattern,
		Timeout:          cfg.Timeout,
	}
}

// parserSink wraps a sink with an optional record transform, applied
// before the record reaches the underlying backend.
type parserSink struct {
	next common.Sink
	cfg  ParserConfig

	auditParse func([]byte) (auditparse.Record, bool, error)
	dmesg      *dmesgparse.Parser
	csv        *csvrow.Parser
}

// wrapWithParser returns next unmodified when no parser is configured, or
// a parserSink that rewrites each record's line through auditd, dmesg or
// csv parsing before handing it on.
func wrapWithParser(next common.Sink, cfg ParserConfig) common.Sink {
	if cfg.Type == "" {
		return next
	}
	ps := &parserSink{next: next, cfg: cfg, auditParse: auditparse.Parse}
	switch cfg.Type {
	case "dmesg":
		ps.dmesg = dmesgparse.NewParser()
	case "csv":
		delim := rune(',')
		if cfg.CSV.Delimiter != "" {
			delim = rune(cfg.CSV.Delimiter[0])
		}
		ps.csv = csvrow.New(csvrow.Config{
			Delimiter:       delim,
			HasHeaders:      cfg.CSV.HasHeaders,
			Headers:         cfg.CSV.Headers,
			AutoDetectTypes: cfg.CSV.AutoDetectTypes,
			TimestampField:  cfg.CSV.TimestampField,
			TimestampFormat: cfg.CSV.TimestampFormat,
		})
	}
	return ps
}

func (p *parserSink) Enqueue(r common.Record) {
	switch p.cfg.Type {
	case "auditd":
		rec, ok, err := p.auditParse(r.Line)
		if err != nil {
			slog.Warn("failed to parse auditd record", "error", err)
			return
		}
		if !ok {
			if p.cfg.DropNonMatching {
				return
			}
			p.next.Enqueue(r)
			return
		}
		r.Line = []byte(rec.JSON())
		p.next.Enqueue(r)

	case "dmesg":
		rec, err := p.dmesg.Parse(r.Line)
		if err != nil || rec == nil {
			if p.cfg.DropNonMatching {
				return
			}
			p.next.Enqueue(r)
			return
		}
		r.Line = []byte(fmt.Sprintf("[%s/%s] %s", rec.FacilityName(), rec.PriorityName(), rec.Message))
		p.next.Enqueue(r)

	case "csv":
		row, ok, err := p.csv.Parse(r.Line)
		if err != nil {
			slog.Warn("failed to parse csv record", "error", err)
			return
		}
		if !ok {
			if p.cfg.DropNonMatching {
				return
			}
			p.next.Enqueue(r)
			return
		}
		encoded, err := json.Marshal(row)
		if err != nil {
			slog.Warn("failed to encode csv record", "error", err)
			return
		}
		r.Line = encoded
		p.next.Enqueue(r)

	default:
		p.next.Enqueue(r)
	}
}

func (p *parserSink) Stop() error { return p.next.Stop() }
