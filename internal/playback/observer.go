package playback

import "time"

// Observer receives playback notifications. The coordinator calls it while
// holding its session lock, in transition order, so implementations must
// return quickly and must not call back into the coordinator synchronously.
// Hand the notification off to your own goroutine or event loop instead
// (Subscription does this with buffered channels).
type Observer interface {
	OnPlaybackPhaseChanged(phase Phase)
	OnPositionTick(position time.Duration)
}

// Resyncer is implemented by observers that want the attach-time state as a
// single notification. Observers without it receive a phase change followed
// by a position tick.
type Resyncer interface {
	OnResync(status Status)
}

// Status is a point-in-time copy of the session state.
type Status struct {
	Phase    Phase
	Track    *Track // nil when no track is selected
	Loop     bool
	Position time.Duration
	Duration time.Duration
	Volume   float64
}
