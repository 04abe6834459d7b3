package singleinstance

import (
	"iter"
	"os"
	"strconv"
	"strings"
)

const (
	defaultPortStart = 49600
	defaultPortEnd   = 49610

	minPort = 1024
	maxPort = 65535
)

// portRange is the inclusive range of loopback ports a resident may use.
type portRange struct{ start, end int }

// rangeFromEnv reads HOVER_CONTROL_PORT_START and HOVER_CONTROL_PORT_END.
// Invalid values fall back to the defaults; the result is clamped to
// [1024, 65535] and never inverted.
func rangeFromEnv() portRange {
	r := portRange{
		start: envPort("HOVER_CONTROL_PORT_START", defaultPortStart),
		end:   envPort("HOVER_CONTROL_PORT_END", defaultPortEnd),
	}
	r.start = min(max(r.start, minPort), maxPort)
	r.end = min(max(r.end, minPort), maxPort)
	if r.end < r.start {
		r.end = r.start
	}
	return r
}

func envPort(key string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return def
	}
	return n
}

func (r portRange) ports() iter.Seq[int] {
	return func(yield func(int) bool) {
		for p := r.start; p <= r.end; p++ {
			if !yield(p) {
				return
			}
		}
	}
}
