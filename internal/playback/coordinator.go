// internal/playback/coordinator.go
package playback

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/llehouerou/streamer/internal/player"
)

// Coordinator owns the playback session: one engine, one poller, and at most
// one attached observer. Commands, poller ticks and engine completion are all
// serialized through mu.
type Coordinator struct {
	mu sync.Mutex

	engine player.Interface
	poller *Poller
	log    logrus.FieldLogger

	observer Observer

	track    *Track
	phase    Phase
	loop     bool
	position time.Duration

	loadGen    uint64
	cancelLoad context.CancelFunc
	closed     bool
}

// New creates a coordinator that exclusively owns engine.
func New(engine player.Interface, log logrus.FieldLogger) *Coordinator {
	if log == nil {
		log = logrus.StandardLogger()
	}
	c := &Coordinator{
		engine: engine,
		poller: NewPoller(TickInterval),
		log:    log.WithField("component", "coordinator"),
		phase:  PhaseIdle,
	}
	engine.OnFinished(c.handleFinished)
	return c
}

// PlayTrack releases the current session and starts track from the
// beginning. The stream is loaded without holding the session lock, so
// ticks, pauses and observer changes proceed while it downloads; a PlayTrack
// or StopAndRelease issued meanwhile cancels this load and makes it return
// ErrSuperseded.
func (c *Coordinator) PlayTrack(ctx context.Context, track Track, loop bool) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}

	gen := c.supersedeLoadLocked()
	loadCtx, cancel := context.WithCancel(ctx)
	c.cancelLoad = cancel

	c.poller.Stop()
	c.engine.Stop()
	c.track = &track
	c.loop = loop
	c.position = 0
	if c.phase.IsActive() {
		c.setPhaseLocked(PhaseStopped)
	}
	c.log.WithFields(logrus.Fields{
		"title": track.Title,
		"url":   track.StreamURL,
		"loop":  loop,
	}).Info("loading track")
	c.mu.Unlock()

	err := c.engine.Load(loadCtx, track.StreamURL, loop)

	c.mu.Lock()
	defer c.mu.Unlock()
	cancel()

	if gen != c.loadGen {
		c.log.WithField("url", track.StreamURL).Debug("load superseded")
		return ErrSuperseded
	}
	c.cancelLoad = nil

	if err == nil {
		err = c.engine.Play()
	}
	if err != nil {
		c.engine.Stop()
		c.track = nil
		c.setPhaseLocked(PhaseStopped)
		c.log.WithError(err).WithField("url", track.StreamURL).Warn("track unavailable")
		return fmt.Errorf("%w: %w", ErrPlaybackUnavailable, err)
	}

	c.startPollerLocked()
	c.setPhaseLocked(PhasePlaying)
	return nil
}

// PlayTrackAsync runs PlayTrack on its own goroutine. The result is sent on
// the returned channel, which has room for it and is then closed.
func (c *Coordinator) PlayTrackAsync(ctx context.Context, track Track, loop bool) <-chan error {
	done := make(chan error, 1)
	go func() {
		defer close(done)
		done <- c.PlayTrack(ctx, track, loop)
	}()
	return done
}

// PauseTrack pauses a playing track. Any other phase is a no-op.
func (c *Coordinator) PauseTrack() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if c.phase != PhasePlaying {
		return nil
	}

	// Stop ticking before the phase flips, so no tick can follow the
	// Paused notification.
	c.poller.Stop()
	if err := c.engine.Pause(); err != nil {
		if errors.Is(err, player.ErrNotLoaded) {
			// The track ended between the command and now.
			c.finishLocked()
			return nil
		}
		c.log.WithError(err).Warn("pause failed")
		c.startPollerLocked()
		return err
	}
	c.position = c.engine.Position()
	c.setPhaseLocked(PhasePaused)
	return nil
}

// ResumeTrack resumes a paused track. Any other phase is a no-op.
func (c *Coordinator) ResumeTrack() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if c.phase != PhasePaused {
		return nil
	}

	if err := c.engine.Play(); err != nil {
		if errors.Is(err, player.ErrNotLoaded) {
			c.finishLocked()
			return nil
		}
		c.log.WithError(err).Warn("resume failed")
		return err
	}
	c.startPollerLocked()
	c.setPhaseLocked(PhasePlaying)
	return nil
}

// TogglePlayback pauses when playing and resumes when paused.
func (c *Coordinator) TogglePlayback() error {
	switch c.Phase() {
	case PhasePlaying:
		return c.PauseTrack()
	case PhasePaused:
		return c.ResumeTrack()
	case PhaseIdle, PhaseStopped:
	}
	return nil
}

// StopAndRelease stops playback from any phase, releases the engine session
// and clears the current track. A load in progress is cancelled.
func (c *Coordinator) StopAndRelease() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}

	c.supersedeLoadLocked()
	c.poller.Stop()
	c.engine.Stop()
	c.track = nil
	c.position = 0
	c.setPhaseLocked(PhaseStopped)
	return nil
}

// SetLoop changes looping for the current and later tracks.
func (c *Coordinator) SetLoop(enabled bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.loop = enabled
	c.engine.SetLoop(enabled)
	c.log.WithField("loop", enabled).Debug("loop changed")
	return nil
}

// Seek moves the position of the loaded track by delta. Without a loaded
// track it is a no-op.
func (c *Coordinator) Seek(delta time.Duration) error {
	return c.seek(func() error { return c.engine.Seek(delta) })
}

// SeekTo moves the loaded track to an absolute position. Without a loaded
// track it is a no-op.
func (c *Coordinator) SeekTo(position time.Duration) error {
	return c.seek(func() error { return c.engine.SeekTo(position) })
}

func (c *Coordinator) seek(fn func() error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if !c.phase.IsActive() {
		return nil
	}
	if err := fn(); err != nil {
		if errors.Is(err, player.ErrNotLoaded) {
			c.finishLocked()
			return nil
		}
		c.log.WithError(err).Warn("seek failed")
		return err
	}
	c.position = c.engine.Position()
	c.notifyPositionLocked()
	return nil
}

// SetVolume sets the output level (0.0 to 1.0).
func (c *Coordinator) SetVolume(level float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.engine.SetVolume(level)
}

// AttachObserver makes obs the observer, replacing any previous one, and
// immediately sends it the current phase and position. Playback state is
// not affected.
func (c *Coordinator) AttachObserver(obs Observer) error {
	if obs == nil {
		return ErrObserverUnavailable
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}

	c.observer = obs
	c.log.WithField("phase", c.phase).Debug("observer attached")

	if r, ok := obs.(Resyncer); ok {
		status := c.statusLocked()
		c.deliverLocked(func(Observer) { r.OnResync(status) })
		return nil
	}
	phase, pos := c.phase, c.position
	c.deliverLocked(func(o Observer) { o.OnPlaybackPhaseChanged(phase) })
	c.deliverLocked(func(o Observer) { o.OnPositionTick(pos) })
	return nil
}

// DetachObserver clears the observer. Once it returns the old observer
// receives no further calls. Playback continues.
func (c *Coordinator) DetachObserver() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.observer != nil {
		c.log.Debug("observer detached")
	}
	c.observer = nil
}

// Phase returns the current phase.
func (c *Coordinator) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Snapshot returns a copy of the session state.
func (c *Coordinator) Snapshot() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statusLocked()
}

// PollerActive reports whether progress ticks are running.
func (c *Coordinator) PollerActive() bool {
	return c.poller.Active()
}

// Close tears the session down: any load is cancelled, the poller stopped
// and the engine released regardless of phase. The observer gets a final
// Stopped notification if a session was active and is then dropped.
func (c *Coordinator) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}

	c.supersedeLoadLocked()
	c.poller.Stop()
	c.engine.Stop()
	c.track = nil
	c.position = 0
	if c.phase.IsActive() {
		c.setPhaseLocked(PhaseStopped)
	}
	c.observer = nil
	c.closed = true
	c.log.Info("coordinator closed")
	return nil
}

// handleFinished runs when the engine reaches the natural end of a track
// with looping off.
func (c *Coordinator) handleFinished() {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Ignore completions of a session that has already been replaced.
	if c.closed || c.phase != PhasePlaying || c.engine.State() != player.Stopped {
		return
	}
	c.log.Info("track finished")
	c.finishLocked()
}

// finishLocked moves to Stopped after the engine session ended on its own.
// The track stays selected so it can be played again.
func (c *Coordinator) finishLocked() {
	c.poller.Stop()
	c.position = 0
	c.setPhaseLocked(PhaseStopped)
}

// tick samples the engine position for poller generation gen.
func (c *Coordinator) tick(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.poller.IsCurrent(gen) || c.phase != PhasePlaying {
		return
	}
	c.position = c.engine.Position()
	c.notifyPositionLocked()
}

func (c *Coordinator) startPollerLocked() {
	c.poller.Start(c.tick)
}

// supersedeLoadLocked invalidates and cancels any load in progress and
// returns the new load generation.
func (c *Coordinator) supersedeLoadLocked() uint64 {
	c.loadGen++
	if c.cancelLoad != nil {
		c.cancelLoad()
		c.cancelLoad = nil
	}
	return c.loadGen
}

func (c *Coordinator) setPhaseLocked(phase Phase) {
	if c.phase == phase {
		return
	}
	c.log.WithFields(logrus.Fields{
		"from": c.phase,
		"to":   phase,
	}).Info("phase changed")
	c.phase = phase
	c.deliverLocked(func(o Observer) { o.OnPlaybackPhaseChanged(phase) })
}

func (c *Coordinator) notifyPositionLocked() {
	pos := c.position
	c.deliverLocked(func(o Observer) { o.OnPositionTick(pos) })
}

// deliverLocked calls fn with the attached observer. With no observer the
// notification is dropped. An observer that panics is detached.
func (c *Coordinator) deliverLocked(fn func(Observer)) {
	obs := c.observer
	if obs == nil {
		c.log.WithError(ErrObserverUnavailable).Trace("notification dropped")
		return
	}
	defer func() {
		if r := recover(); r != nil {
			c.log.WithField("panic", r).Error("observer panicked, detaching")
			if c.observer == obs {
				c.observer = nil
			}
		}
	}()
	fn(obs)
}

func (c *Coordinator) statusLocked() Status {
	s := Status{
		Phase:    c.phase,
		Loop:     c.loop,
		Position: c.position,
		Duration: c.engine.Duration(),
		Volume:   c.engine.Volume(),
	}
	if c.track != nil {
		t := *c.track
		s.Track = &t
		if s.Duration == 0 {
			s.Duration = t.Duration
		}
	}
	return s
}
