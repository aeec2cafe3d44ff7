package main

import (
	"fmt"
	"os"

	"github.com/loykin/linescan/internal/recordsink/clickhouse"
	"github.com/loykin/linescan/internal/recordsink/common"
	"github.com/loykin/linescan/internal/recordsink/console"
	"github.com/loykin/linescan/internal/recordsink/opensearch"
)

// buildSink constructs and starts the sink named by cfg.Sink.Type.
func buildSink(cfg *Config) (common.Sink, error) {
	s := cfg.Sink
	switch s.Type {
	case "console":
		return console.New(s.Console.Stream, s.BatchSize, s.BatchInterval, s.Include, s.Exclude), nil

	case "clickhouse":
		host := s.Host
		if host == "" {
			if h, err := os.Hostname(); err == nil {
				host = h
			}
		}
		return clickhouse.New(
			s.ClickHouse.Addr, s.ClickHouse.Database, s.ClickHouse.Table,
			s.ClickHouse.User, s.ClickHouse.Password, host, s.Labels,
			s.BatchSize, s.BatchInterval, s.Include, s.Exclude,
		)

	case "opensearch":
		host := s.Host
		if host == "" {
			if h, err := os.Hostname(); err == nil {
				host = h
			}
		}
		return opensearch.New(
			s.OpenSearch.URL, s.OpenSearch.Index, s.OpenSearch.User, s.OpenSearch.Password,
			host, s.Labels, s.BatchSize, s.BatchInterval, s.Include, s.Exclude,
		)

	default:
		return nil, fmt.Errorf("unsupported sink: %s", s.Type)
	}
}
