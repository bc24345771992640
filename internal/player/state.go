// internal/player/state.go
package player

// State represents the engine state machine.
//
//	┌──────────┐      load       ┌──────────┐
//	│  Stopped │ ───────────────▶│  Paused  │
//	└──────────┘                 └──────────┘
//	     ▲                          │    ▲
//	     │ stop / end          play │    │ pause
//	     │ (loop off)               ▼    │
//	     │                       ┌──────────┐
//	     └───────────────────────│  Playing │──┐
//	                             └──────────┘  │ end (loop on):
//	                                   ▲       │ restart at 0
//	                                   └───────┘
//
// A freshly loaded session is Paused at position zero. Stop is valid from
// every state and is a no-op when already Stopped.
type State int

const (
	Stopped State = iota
	Playing
	Paused
)

// String returns the state name for debugging.
func (s State) String() string {
	switch s {
	case Stopped:
		return "Stopped"
	case Playing:
		return "Playing"
	case Paused:
		return "Paused"
	default:
		return "Unknown"
	}
}

// IsLoaded returns true if a session exists (Playing or Paused).
func (s State) IsLoaded() bool {
	return s == Playing || s == Paused
}

// CanPause returns true if the state allows pausing.
func (s State) CanPause() bool {
	return s == Playing
}

// CanPlay returns true if the state allows starting or resuming output.
func (s State) CanPlay() bool {
	return s == Paused
}
