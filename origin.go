package config

import (
	"fmt"
	"runtime"
	"strings"
)

// maxOriginDepth bounds how many stack frames an Origin captures.
const maxOriginDepth = 16

// Frame identifies a single call site: the function, file, and line that
// made a declaration or mutation.
type Frame struct {
	Function string
	File     string
	Line     int
}

// String formats the frame as "file:line (function)".
func (f Frame) String() string {
	if f.File == "" {
		return "unknown"
	}
	return fmt.Sprintf("%s:%d (%s)", f.File, f.Line, f.Function)
}

// Origin is an ordered capture of the call stack at the moment a field was
// declared or a value was assigned. It is recorded in field history and on
// validation errors, and is used only for diagnostics.
type Origin []Frame

// String formats the origin as one frame per line, innermost first.
func (o Origin) String() string {
	if len(o) == 0 {
		return "unknown"
	}
	lines := make([]string, 0, len(o))
	for _, f := range o {
		lines = append(lines, "  "+f.String())
	}
	return strings.Join(lines, "\n")
}

// callerOrigin captures the calling stack, skipping the given number of
// frames above callerOrigin itself. Frames inside this package's mutation
// plumbing are skipped by the callers choosing an appropriate skip.
func callerOrigin(skip int) Origin {
	pcs := make([]uintptr, maxOriginDepth)
	n := runtime.Callers(skip+2, pcs)
	if n == 0 {
		return nil
	}
	frames := runtime.CallersFrames(pcs[:n])
	origin := make(Origin, 0, n)
	for {
		fr, more := frames.Next()
		origin = append(origin, Frame{
			Function: fr.Function,
			File:     fr.File,
			Line:     fr.Line,
		})
		if !more {
			break
		}
	}
	return origin
}

// callerFrame captures the single innermost calling frame, skipping the
// given number of frames above callerFrame itself.
func callerFrame(skip int) Frame {
	var pc [1]uintptr
	if runtime.Callers(skip+2, pc[:]) == 0 {
		return Frame{}
	}
	fr, _ := runtime.CallersFrames(pc[:]).Next()
	return Frame{Function: fr.Function, File: fr.File, Line: fr.Line}
}
