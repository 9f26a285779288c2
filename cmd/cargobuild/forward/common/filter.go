package common

import (
	"strings"

	"github.com/loykin/cargobuild/pkg/instruction"
)

// kindPrefix marks a filter pattern that matches an instruction key exactly
// (e.g. "key:rustc-link-lib") instead of a substring of the line.
const kindPrefix = "key:"

// filter applies include/exclude patterns.
type filter struct {
	includes []string
	excludes []string
}

func (f *filter) allow(line string) bool {
	key := ""
	if l, _, err := instruction.Parse(line); err == nil {
		key = l.Key
	}
	if len(f.includes) > 0 {
		ok := false
		for _, inc := range f.includes {
			if inc == "" || match(inc, line, key) {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	for _, exc := range f.excludes {
		if exc != "" && match(exc, line, key) {
			return false
		}
	}
	return true
}

func match(pattern, line, key string) bool {
	if k, ok := strings.CutPrefix(pattern, kindPrefix); ok {
		return key != "" && k == key
	}
	return strings.Contains(line, pattern)
}
