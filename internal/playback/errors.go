package playback

import "errors"

var (
	// ErrPlaybackUnavailable is returned when a track cannot be started.
	// It wraps the engine's player.ErrMediaLoad.
	ErrPlaybackUnavailable = errors.New("playback unavailable")
	// ErrObserverUnavailable marks a missing or rejected observer.
	ErrObserverUnavailable = errors.New("observer unavailable")
	// ErrSuperseded is returned by a PlayTrack whose load was overtaken by a
	// later command before it completed.
	ErrSuperseded = errors.New("superseded by a newer command")
	// ErrClosed is returned by commands issued after Close.
	ErrClosed = errors.New("coordinator closed")
)
