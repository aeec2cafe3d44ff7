// Package dmesgparse parses kernel ring buffer ("dmesg") log lines.
package dmesgparse

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Record is a parsed dmesg log entry.
//
// Example formats:
//
//	[    0.000000] Linux version 5.4.0-74-generic
//	<6>[    0.000000] Linux version 5.4.0-74-generic (with facility/priority)
type Record struct {
	Raw          string
	Timestamp    float64 // seconds since boot
	Facility     int
	Priority     int
	Subsystem    string
	Message      string
	AbsoluteTime *time.Time
}

// Parser holds compiled regexes and an optional boot time for converting
// relative dmesg timestamps to absolute ones.
type Parser struct {
	lineRe      *regexp.Regexp
	subsystemRe *regexp.Regexp
	bootTime    *time.Time
}

// NewParser returns a ready-to-use Parser.
func NewParser() *Parser {
	return &Parser{
		lineRe:      regexp.MustCompile(`^(?:<(\d+)>)?\[\s*(\d+(?:\.\d+)?)]\s*(.*)$`),
		subsystemRe: regexp.MustCompile(`^([a-zA-Z][a-zA-Z0-9_-]*)\s*.*?:`),
	}
}

// SetBootTime sets the system boot time used to compute AbsoluteTime.
func (p *Parser) SetBootTime(bootTime time.Time) { p.bootTime = &bootTime }

// Parse parses a single dmesg line, typically a record handed back by a
// scanner.Scanner with its trailing delimiter already trimmed.
func (p *Parser) Parse(line []byte) (*Record, error) {
	s := strings.TrimSpace(string(line))
	if s == "" {
		return nil, nil
	}

	m := p.lineRe.FindStringSubmatch(s)
	if len(m) != 4 {
		return &Record{Raw: s, Message: s}, nil
	}

	rec := &Record{Raw: s}
	if m[1] != "" {
		if priority, err := strconv.Atoi(m[1]); err == nil {
			rec.Priority = priority & 0x07
			rec.Facility = priority >> 3
		}
	}
	if ts, err := strconv.ParseFloat(m[2], 64); err == nil {
		rec.Timestamp = ts
		if p.bootTime != nil {
			abs := p.bootTime.Add(time.Duration(ts * float64(time.Second)))
			rec.AbsoluteTime = &abs
		}
	}

	rec.Message = strings.TrimSpace(m[3])
	if subMatches := p.subsystemRe.FindStringSubmatch(rec.Message); len(subMatches) > 1 {
		rec.Subsystem = subMatches[1]
	} else if parts := strings.Fields(rec.Message); len(parts) > 0 {
		first := strings.ToLower(parts[0])
		switch {
		case isKnownSubsystem(first):
			rec.Subsystem = first
		case strings.Contains(rec.Message, "Linux version"):
			rec.Subsystem = "kernel"
		case strings.Contains(rec.Message, "systemd["):
			rec.Subsystem = "systemd"
		case strings.Contains(rec.Message, "docker"):
			rec.Subsystem = "docker"
		}
	}
	return rec, nil
}

func isKnownSubsystem(s string) bool {
	known := map[string]bool{
		"kernel": true, "usb": true, "net": true, "pci": true, "acpi": true,
		"cpu": true, "memory": true, "disk": true, "filesystem": true,
		"block": true, "scsi": true, "ata": true, "sound": true, "input": true,
		"thermal": true, "power": true, "bluetooth": true, "wifi": true,
		"ethernet": true, "bridge": true, "firewall": true, "systemd": true,
		"docker": true, "kvm": true, "xen": true,
	}
	return known[s]
}

// PriorityName returns the syslog priority name for r.Priority.
func (r *Record) PriorityName() string {
	names := []string{"emergency", "alert", "critical", "error", "warning", "notice", "info", "debug"}
	if r.Priority >= 0 && r.Priority < len(names) {
		return names[r.Priority]
	}
	return "unknown"
}

// FacilityName returns the syslog facility name for r.Facility.
func (r *Record) FacilityName() string {
	names := []string{
		"kernel", "user", "mail", "daemon", "auth", "syslog", "lpr", "news",
		"uucp", "cron", "authpriv", "ftp", "ntp", "security", "console",
		"solaris-cron", "local0", "local1", "local2", "local3", "local4",
		"local5", "local6", "local7",
	}
	if r.Facility >= 0 && r.Facility < len(names) {
		return names[r.Facility]
	}
	return "unknown"
}
