// Package auditparse parses Linux auditd log lines captured by the
// scanner, typically NUL- or newline-delimited records read straight out
// of /var/log/audit/audit.log.
package auditparse

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	au "github.com/elastic/go-libaudit/v2/auparse"
)

// Record is a parsed auditd log entry: the common header fields plus the
// trailing key/value pairs.
//
// Example line:
//
//	type=SYSCALL msg=audit(1700000000.123:456): arch=c000003e syscall=59 success=yes ...
type Record struct {
	Raw       string            `json:"raw"`
	Type      string            `json:"type"`
	EpochSec  int64             `json:"epoch_sec,omitempty"`
	EpochNSec int64             `json:"epoch_nsec,omitempty"`
	Serial    int64             `json:"serial,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
}

var (
	// altHeadRe covers lines auparse.ParseLogLine rejects (e.g. missing the
	// msg=audit(...) envelope) but that still look like audit output.
	altHeadRe = regexp.MustCompile(`^type=([A-Z_]+)\s+(.*)$`)
)

// Parse parses a single audit log line, typically a record handed back by
// a scanner.Scanner with trailing delimiter bytes already trimmed by the
// caller. It leans on auparse.ParseLogLine for the well-formed case and
// falls back to a tolerant header regex for lines that don't carry the
// full msg=audit(...) envelope. It returns (record, true, nil) on
// success, (zero, false, nil) when line doesn't look like an audit entry,
// and a non-nil error only on a hard parsing failure.
func Parse(line []byte) (Record, bool, error) {
	s := strings.TrimSpace(string(line))
	if s == "" {
		return Record{}, false, nil
	}

	if msg, err := au.ParseLogLine(s); err == nil && msg != nil {
		fields, ferr := msg.Data()
		if ferr != nil {
			fields = map[string]string{}
		}
		return Record{
			Raw:       s,
			Type:      msg.RecordType.String(),
			EpochSec:  msg.Timestamp.Unix(),
			EpochNSec: int64(msg.Timestamp.Nanosecond()),
			Serial:    int64(msg.Sequence),
			Fields:    fields,
		}, true, nil
	}

	if m := altHeadRe.FindStringSubmatch(s); m != nil {
		rec := Record{Raw: s, Type: m[1], Fields: map[string]string{}}
		parseKeyValuesInto(rec.Fields, m[2])
		return rec, true, nil
	}

	return Record{}, false, nil
}

// parseKeyValuesInto parses key=value tokens, where value may be quoted
// and contain spaces: key1=val1 key2="hello world" key3='x y'.
func parseKeyValuesInto(dst map[string]string, s string) {
	for _, t := range tokenizeKV(s) {
		eq := strings.IndexByte(t, '=')
		if eq <= 0 {
			continue
		}
		k := t[:eq]
		v := strings.TrimSpace(t[eq+1:])
		if len(v) >= 2 {
			if (v[0] == '"' && v[len(v)-1] == '"') || (v[0] == '\'' && v[len(v)-1] == '\'') {
				v = v[1 : len(v)-1]
			}
		}
		v = strings.ReplaceAll(v, `\"`, `"`)
		dst[k] = v
	}
}

// tokenizeKV splits s by spaces, keeping quoted substrings intact.
func tokenizeKV(s string) []string {
	var out []string
	var b strings.Builder
	inSingle, inDouble, esc := false, false, false

	flush := func() {
		if b.Len() > 0 {
			out = append(out, b.String())
			b.Reset()
		}
	}
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if esc {
			b.WriteByte(ch)
			esc = false
			continue
		}
		switch ch {
		case '\\':
			esc = true
		case ' ':
			if inSingle || inDouble {
				b.WriteByte(ch)
			} else {
				flush()
			}
		case '"':
			if !inSingle {
				inDouble = !inDouble
			}
			b.WriteByte(ch)
		case '\'':
			if !inDouble {
				inSingle = !inSingle
			}
			b.WriteByte(ch)
		default:
			b.WriteByte(ch)
		}
	}
	flush()
	return out
}

// JSON returns a compact JSON representation of the record (best-effort).
func (r Record) JSON() string {
	b, err := json.Marshal(r)
	if err != nil {
		return fmt.Sprintf(`{"error":%q}`, err.Error())
	}
	return string(b)
}
