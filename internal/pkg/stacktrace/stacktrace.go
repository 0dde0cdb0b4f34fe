package stacktrace

import (
	"fmt"
	"runtime"
	"strings"
)

const maxDepth = 64

// InternalFrames returns the caller's stack as "internal/<path>.go:<line>"
// entries, keeping only frames from this module's internal packages. skip
// counts frames above the caller of InternalFrames.
func InternalFrames(skip int) []string {
	pcs := make([]uintptr, maxDepth)
	n := runtime.Callers(skip+2, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	paths := make([]string, 0, n)
	for {
		frame, more := frames.Next()
		if idx := strings.LastIndex(frame.File, "/internal/"); idx != -1 {
			paths = append(paths, fmt.Sprintf("%s:%d", frame.File[idx+1:], frame.Line))
		}
		if !more {
			break
		}
	}

	return paths
}
