// Package clickhouse implements a recordsink backend that batches
// records into ClickHouse via native or HTTP protocol.
package clickhouse

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	ch "github.com/ClickHouse/clickhouse-go/v2"
	"github.com/loykin/linescan/internal/metrics"
	"github.com/loykin/linescan/internal/recordsink/common"
)

type sink struct {
	batcher  common.Batcher
	conn     ch.Conn
	database string
	table    string
	host     string
	labels   map[string]string
}

// New opens a ClickHouse connection, ensures the target table exists via
// embedded migrations, and returns a batching sink writing to it.
func New(addr, database, table, user, pass, host string, labels map[string]string, batchSize int, batchInterval time.Duration, includes, excludes []string) (common.Sink, error) {
	if addr == "" || table == "" {
		return nil, fmt.Errorf("clickhouse addr and table are required")
	}

	var opts ch.Options
	if strings.Contains(addr, "://") {
		u, err := url.Parse(addr)
		if err != nil {
			return nil, fmt.Errorf("invalid clickhouse addr: %w", err)
		}
		opts = ch.Options{Addr: []string{u.Host}, Protocol: ch.HTTP, Auth: ch.Auth{Username: user, Password: pass, Database: database}}
		if u.Scheme == "https" {
			opts.TLS = &tls.Config{MinVersion: tls.VersionTLS12}
		}
	} else {
		opts = ch.Options{Addr: []string{addr}, Auth: ch.Auth{Username: user, Password: pass, Database: database}}
	}

	if err := runMigrations(&opts, database, table); err != nil {
		return nil, err
	}

	conn, err := ch.Open(&opts)
	if err != nil {
		return nil, err
	}

	s := &sink{
		batcher:  common.NewBatcher(batchSize, batchInterval, includes, excludes),
		conn:     conn,
		database: database,
		table:    table,
		host:     host,
		labels:   labels,
	}
	s.start()
	return s, nil
}

func (s *sink) start() {
	s.batcher.Wg.Add(1)
	go func() {
		defer s.batcher.Wg.Done()
		buf := make([]common.Record, 0, s.batcher.BatchSize)
		ticker := time.NewTicker(s.batcher.BatchInterval)
		defer ticker.Stop()
		flush := func() {
			if len(buf) == 0 {
				return
			}
			if err := s.flush(buf); err != nil {
				slog.Error("clickhouse flush failed", "error", err)
				metrics.IncSinkErrors()
			} else {
				metrics.IncSinkRecords(len(buf))
			}
			buf = buf[:0]
		}
		for {
			select {
			case <-s.batcher.StopCh:
				buf = append(buf, s.batcher.Drain()...)
				flush()
				return
			case <-ticker.C:
				flush()
			case r := <-s.batcher.Ch:
				buf = append(buf, r)
				if len(buf) >= s.batcher.BatchSize {
					flush()
				}
			}
		}
	}()
}

func (s *sink) Stop() error {
	s.batcher.StopOnce.Do(func() { close(s.batcher.StopCh) })
	s.batcher.Wg.Wait()
	return nil
}

func (s *sink) Enqueue(r common.Record) { s.batcher.Enqueue(r) }

func (s *sink) flush(records []common.Record) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tbl := s.table
	if s.database != "" && !strings.Contains(tbl, ".") {
		tbl = s.database + "." + s.table
	}
	batch, err := s.conn.PrepareBatch(ctx, "INSERT INTO "+tbl+" (ts, host, path, tag, labels, message)")
	if err != nil {
		return err
	}
	now := time.Now()
	for _, r := range records {
		if err := batch.Append(now, s.host, r.Path, r.Tag.String(), s.labels, string(r.Line)); err != nil {
			return err
		}
	}
	return batch.Send()
}
