// Package metrics exposes the Prometheus counters and gauges for
// linescan's scanning, discovery, and sink pipeline.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	readsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "linescan",
		Name:      "reads_total",
		Help:      "Total number of Getline calls issued by the collector.",
	})
	bytesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "linescan",
		Name:      "bytes_total",
		Help:      "Total number of bytes in the records and chunks returned by the scanners.",
	})
	recordsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "linescan",
		Name:      "records_total",
		Help:      "Total number of complete records produced, including a final record without a delimiter.",
	})
	longLinesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "linescan",
		Name:      "long_lines_total",
		Help:      "Total number of records that exceeded buffer capacity and were chunked.",
	})
	pausesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "linescan",
		Name:      "pauses_total",
		Help:      "Total number of times a scanner deferred a buffer mutation via the pause latch.",
	})
	errorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "linescan",
		Name:      "errors_total",
		Help:      "Total number of read errors encountered while scanning.",
	})
	eofTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "linescan",
		Name:      "eof_total",
		Help:      "Total number of times a scanner reached end of input.",
	})
	activeFiles = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "linescan",
		Name:      "active_files",
		Help:      "Current number of files being actively scanned.",
	})
	filesSeenTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "linescan",
		Name:      "files_seen_total",
		Help:      "Total number of files discovered by the watcher.",
	})
	restoredOffsetsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "linescan",
		Name:      "restored_offsets_total",
		Help:      "Total number of files for which an offset was restored from checkpoint storage.",
	})
	sinkRecordsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "linescan",
		Name:      "sink_records_total",
		Help:      "Total number of records handed to a sink.",
	})
	sinkErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "linescan",
		Name:      "sink_errors_total",
		Help:      "Total number of errors returned by a sink while flushing a batch.",
	})
)

// Register registers every linescan metric on r. It is safe to call more
// than once; AlreadyRegisteredError from a prior call is ignored.
func Register(r prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		readsTotal, bytesTotal, recordsTotal, longLinesTotal, pausesTotal,
		errorsTotal, eofTotal, activeFiles, filesSeenTotal, restoredOffsetsTotal,
		sinkRecordsTotal, sinkErrorsTotal,
	}
	for _, c := range collectors {
		if err := r.Register(c); err != nil {
			var already prometheus.AlreadyRegisteredError
			if errors.As(err, &already) {
				continue
			}
			return err
		}
	}
	return nil
}

// IncReads increments the reads-issued counter by 1.
func IncReads() { readsTotal.Inc() }

// AddBytes adds n to the bytes-read counter.
func AddBytes(n int) {
	if n > 0 {
		bytesTotal.Add(float64(n))
	}
}

// IncRecords adds n to the complete-records counter.
func IncRecords(n int) {
	if n > 0 {
		recordsTotal.Add(float64(n))
	}
}

// IncLongLines increments the long-lines counter by 1.
func IncLongLines() { longLinesTotal.Inc() }

// IncPauses increments the pause counter by 1.
func IncPauses() { pausesTotal.Inc() }

// IncReadErrors increments the read-errors counter by 1.
func IncReadErrors() { errorsTotal.Inc() }

// IncEOF increments the end-of-file counter by 1.
func IncEOF() { eofTotal.Inc() }

// IncActiveFiles increments the active-files gauge by 1.
func IncActiveFiles() { activeFiles.Inc() }

// DecActiveFiles decrements the active-files gauge by 1.
func DecActiveFiles() { activeFiles.Dec() }

// IncFilesSeen increments the files-seen counter by 1.
func IncFilesSeen() { filesSeenTotal.Inc() }

// IncRestoredOffsets increments the restored-offsets counter by 1.
func IncRestoredOffsets() { restoredOffsetsTotal.Inc() }

// IncSinkRecords adds n to the sink-records counter.
func IncSinkRecords(n int) {
	if n > 0 {
		sinkRecordsTotal.Add(float64(n))
	}
}

// IncSinkErrors increments the sink-errors counter by 1.
func IncSinkErrors() { sinkErrorsTotal.Inc() }
