// internal/player/interface.go
package player

import (
	"context"
	"time"
)

// Interface defines the engine contract for dependency injection and testing.
// An engine holds at most one decoded stream session at a time.
type Interface interface {
	// Load opens url and prepares it for playback, releasing any previous
	// session first. The session starts paused at position zero.
	Load(ctx context.Context, url string, loop bool) error
	Play() error
	Pause() error
	// Stop releases the decoder and output resources. Safe to call repeatedly.
	Stop()
	State() State
	IsPlaying() bool
	Position() time.Duration
	Duration() time.Duration
	Seek(delta time.Duration) error
	SeekTo(position time.Duration) error
	SetLoop(enabled bool)
	Loop() bool
	SetVolume(level float64)
	Volume() float64
	// OnFinished registers fn to be called when a non-looping session
	// reaches its natural end. fn runs on its own goroutine.
	OnFinished(fn func())
}

// Verify Player implements Interface at compile time.
var _ Interface = (*Player)(nil)
