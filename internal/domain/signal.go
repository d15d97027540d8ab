package domain

import (
	"fmt"
	"strings"
)

// Signal is a presence event delivered by the shell the trigger is attached
// to.
type Signal string

const (
	SignalMount    Signal = "mount"
	SignalVisible  Signal = "visible"
	SignalHidden   Signal = "hidden"
	SignalFocus    Signal = "focus"
	SignalOnline   Signal = "online"
	SignalOffline  Signal = "offline"
	SignalPageHide Signal = "pagehide"
)

var Signals = []Signal{
	SignalMount,
	SignalVisible,
	SignalHidden,
	SignalFocus,
	SignalOnline,
	SignalOffline,
	SignalPageHide,
}

func ParseSignal(raw string) (Signal, error) {
	normalized := Signal(strings.ToLower(strings.TrimSpace(raw)))
	for _, signal := range Signals {
		if signal == normalized {
			return signal, nil
		}
	}

	return "", fmt.Errorf("%w %q", ErrUnknownSignal, raw)
}

// ResumesActivity reports whether the signal may start a sweep.
func (s Signal) ResumesActivity() bool {
	switch s {
	case SignalMount, SignalVisible, SignalFocus, SignalOnline:
		return true
	default:
		return false
	}
}
