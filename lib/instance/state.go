package instance

import (
	"strings"

	"github.com/westvm/westvm/lib/multipass"
)

// State is the derived power state of the sandbox instance.
type State string

const (
	StateAbsent  State = "absent"
	StateStopped State = "stopped"
	StateRunning State = "running"
)

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// stateFromPlatform collapses the platform's states onto the three-way
// variant. Suspended counts as stopped (it needs a start). Transitional
// states count as running: the platform serializes subsequent exec calls
// behind the transition.
func stateFromPlatform(s multipass.State) State {
	switch strings.ToLower(string(s)) {
	case "stopped", "suspended":
		return StateStopped
	case "":
		return StateAbsent
	default:
		return StateRunning
	}
}
