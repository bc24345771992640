// internal/playback/phase.go
package playback

// Phase is the coordinator's view of the playback session.
//
//	Idle ──play──▶ Playing ◀──resume── Paused
//	                  │ ──────pause──────▶ │
//	                  ▼                    ▼
//	               Stopped ◀────stop─────┘
//
// Stopped returns to Playing only through a fresh PlayTrack.
type Phase int

const (
	PhaseIdle Phase = iota
	PhasePlaying
	PhasePaused
	PhaseStopped
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "Idle"
	case PhasePlaying:
		return "Playing"
	case PhasePaused:
		return "Paused"
	case PhaseStopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// IsActive returns true if a session is loaded (Playing or Paused).
func (p Phase) IsActive() bool {
	return p == PhasePlaying || p == PhasePaused
}
