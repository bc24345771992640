package app

import "github.com/llehouerou/streamer/internal/playback"

// EventMsg carries one coordinator notification. Sub identifies the
// subscription it came from so events read after a detach are ignored.
type EventMsg struct {
	Sub   *playback.Subscription
	Event playback.Event
}

// SubscriptionClosedMsg is sent when the subscription's Done channel closes.
type SubscriptionClosedMsg struct {
	Sub *playback.Subscription
}

// PlayResultMsg reports the outcome of a PlayTrack issued from the UI.
type PlayResultMsg struct {
	Err error
}
