// Package stacktrace trims runtime stacks down to this module's own frames.
package stacktrace

import (
	"strings"
)

const marker = "/internal/"

// InternalPaths returns "internal/<pkg>/<file>.go:<line>" for every frame
// under an internal/ directory, innermost first. Frame lines in a
// debug.Stack dump are tab-indented and may end with " +0x1f".
func InternalPaths(stack []byte) []string {
	var paths []string

	for _, line := range strings.Split(string(stack), "\n") {
		if !strings.HasPrefix(line, "\t") {
			continue
		}

		loc := strings.TrimSpace(line)
		if i := strings.LastIndexByte(loc, ' '); i != -1 {
			loc = loc[:i]
		}

		i := strings.LastIndex(loc, marker)
		if i == -1 || !strings.Contains(loc[i:], ".go:") {
			continue
		}
		paths = append(paths, loc[i+1:])
	}

	return paths
}
