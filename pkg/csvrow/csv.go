// Package csvrow parses CSV-formatted log lines captured by the scanner
// into typed field maps, with optional header inference and timestamp
// extraction.
package csvrow

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Row is a parsed CSV record: the raw line plus its fields keyed by
// header name.
type Row struct {
	Raw     string                 `json:"raw"`
	Fields  map[string]interface{} `json:"fields"`
	LineNum int                    `json:"line_number"`
}

// Config configures a Parser.
type Config struct {
	Delimiter       rune     // Default: ','
	HasHeaders      bool     // First line parsed supplies headers rather than a Row
	Headers         []string // Headers to use when HasHeaders is false
	AutoDetectTypes bool     // Convert field strings to bool/int/float/time where they parse
	TimestampField  string   // Field name holding a timestamp
	TimestampFormat string   // Go time layout for TimestampField
}

// Parser holds the header state and line counter a stream of CSV lines
// accumulates across calls to Parse.
type Parser struct {
	cfg       Config
	delimiter rune
	headers   []string
	lineCount int
}

// New returns a ready-to-use Parser.
func New(cfg Config) *Parser {
	delimiter := cfg.Delimiter
	if delimiter == 0 {
		delimiter = ','
	}
	return &Parser{
		cfg:       cfg,
		delimiter: delimiter,
		headers:   append([]string(nil), cfg.Headers...),
	}
}

// Parse parses a single CSV line, typically a record handed back by a
// scanner.Scanner with its trailing delimiter already trimmed. It returns
// (row, true, nil) on a data row, (zero, false, nil) for a blank line or
// a consumed header line, and a non-nil error only on a malformed row.
func (p *Parser) Parse(line []byte) (Row, bool, error) {
	s := strings.TrimSpace(string(line))
	if s == "" {
		return Row{}, false, nil
	}
	p.lineCount++

	r := csv.NewReader(bytes.NewReader([]byte(s)))
	r.Comma = p.delimiter
	r.TrimLeadingSpace = true

	fields, err := r.Read()
	if err != nil {
		return Row{}, false, fmt.Errorf("csvrow: line %d: %w", p.lineCount, err)
	}

	if p.lineCount == 1 && p.cfg.HasHeaders {
		p.headers = fields
		return Row{}, false, nil
	}

	if len(p.headers) == 0 {
		p.headers = make([]string, len(fields))
		for i := range p.headers {
			p.headers[i] = fmt.Sprintf("field_%d", i+1)
		}
	}

	fieldMap := make(map[string]interface{}, len(fields))
	for i, value := range fields {
		name := fmt.Sprintf("extra_field_%d", i+1)
		if i < len(p.headers) {
			name = p.headers[i]
		}
		if p.cfg.AutoDetectTypes {
			fieldMap[name] = detectType(value)
		} else {
			fieldMap[name] = value
		}
	}

	row := Row{Raw: s, Fields: fieldMap, LineNum: p.lineCount}

	if p.cfg.TimestampField != "" && p.cfg.TimestampFormat != "" {
		if v, ok := fieldMap[p.cfg.TimestampField].(string); ok {
			if parsed, err := time.Parse(p.cfg.TimestampFormat, v); err == nil {
				fieldMap[p.cfg.TimestampField+"_parsed"] = parsed
			}
		}
	}

	return row, true, nil
}

// Headers returns a copy of the parser's current header set.
func (p *Parser) Headers() []string {
	return append([]string(nil), p.headers...)
}

// Reset clears the line counter and, when HasHeaders is set, the current
// headers, so the parser can be reused against a fresh file.
func (p *Parser) Reset() {
	p.lineCount = 0
	if p.cfg.HasHeaders {
		p.headers = nil
	}
}

func detectType(value string) interface{} {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}

	switch strings.ToLower(value) {
	case "true", "yes", "on":
		return true
	case "false", "no", "off":
		return false
	}

	if i, err := strconv.ParseInt(value, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f
	}

	for _, layout := range []string{
		time.RFC3339,
		time.RFC3339Nano,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02",
	} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}

	return value
}
