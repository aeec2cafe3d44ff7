package common

import "bytes"

// filter applies include/exclude substring filters over a record's line.
type filter struct {
	includes [][]byte
	excludes [][]byte
}

func newFilter(includes, excludes []string) *filter {
	f := &filter{}
	for _, s := range includes {
		f.includes = append(f.includes, []byte(s))
	}
	for _, s := range excludes {
		f.excludes = append(f.excludes, []byte(s))
	}
	return f
}

func (f *filter) allow(line []byte) bool {
	if len(f.includes) > 0 {
		ok := false
		for _, inc := range f.includes {
			if len(inc) == 0 || bytes.Contains(line, inc) {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	for _, exc := range f.excludes {
		if len(exc) != 0 && bytes.Contains(line, exc) {
			return false
		}
	}
	return true
}
