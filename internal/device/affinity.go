package device

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind distinguishes host execution from accelerator-stream execution.
type Kind int

const (
	// Host means work runs synchronously on the calling goroutine.
	Host Kind = iota
	// Accel means work is enqueued onto an asynchronous device stream.
	Accel
)

// Affinity identifies the stream a node's work is dispatched to.
type Affinity struct {
	Kind    Kind
	Ordinal int
}

// HostAffinity is the zero affinity: synchronous host execution.
var HostAffinity = Affinity{Kind: Host}

// ParseAffinity parses a device declaration. The empty string and "host"
// select host execution; "accel:N" selects accelerator stream N.
func ParseAffinity(s string) (Affinity, error) {
	switch {
	case s == "" || s == "host":
		return HostAffinity, nil
	case strings.HasPrefix(s, "accel:"):
		n, err := strconv.Atoi(strings.TrimPrefix(s, "accel:"))
		if err != nil || n < 0 {
			return Affinity{}, fmt.Errorf("invalid accelerator ordinal in device %q", s)
		}
		return Affinity{Kind: Accel, Ordinal: n}, nil
	case s == "accel":
		return Affinity{Kind: Accel}, nil
	default:
		return Affinity{}, fmt.Errorf("unknown device %q (want \"host\" or \"accel:N\")", s)
	}
}

// IsHost reports whether the affinity selects host execution.
func (a Affinity) IsHost() bool {
	return a.Kind == Host
}

// String renders the affinity in the same form ParseAffinity accepts.
func (a Affinity) String() string {
	if a.IsHost() {
		return "host"
	}
	return fmt.Sprintf("accel:%d", a.Ordinal)
}
