package pointer

import (
	"fmt"
	"runtime"
	"strings"
)

// Source kinds accepted by NewSource.
const (
	KindAuto  = "auto"
	KindHook  = "hook"
	KindPoll  = "poll"
	KindWin32 = "win32"
)

// NewSource returns the Source for kind. "auto" picks win32 on Windows and
// the global hook elsewhere.
func NewSource(kind string) (Source, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", KindAuto:
		if runtime.GOOS == "windows" {
			return newWin32Source(), nil
		}
		return NewHookSource(), nil
	case KindHook:
		return NewHookSource(), nil
	case KindPoll:
		return PollSource{}, nil
	case KindWin32:
		return newWin32Source(), nil
	default:
		return nil, fmt.Errorf("unknown pointer source %q", kind)
	}
}
