// Package stacktrace trims goroutine dumps to the frames that belong to this module.
package stacktrace

import "strings"

// InternalPaths returns the "internal/...go:line" locations found in a debug.Stack dump.
func InternalPaths(stack []byte) []string {
	var paths []string
	for line := range strings.Lines(string(stack)) {
		line = strings.TrimSpace(line)
		_, rest, ok := strings.Cut(line, "/internal/")
		if !ok {
			continue
		}
		idx := strings.Index(rest, ".go:")
		if idx == -1 {
			continue
		}
		loc, _, _ := strings.Cut(rest, " ")
		paths = append(paths, "internal/"+loc)
	}
	return paths
}
