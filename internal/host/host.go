// Package host owns the long-lived playback session. UIs come and go by
// binding and unbinding; the session keeps playing in between.
package host

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/llehouerou/streamer/internal/notify"
	"github.com/llehouerou/streamer/internal/playback"
	"github.com/llehouerou/streamer/internal/player"
	"github.com/llehouerou/streamer/internal/state"
)

// ErrIncompatibleObserver is returned by Bind when the UI does not
// implement playback.Observer.
var ErrIncompatibleObserver = fmt.Errorf("%w: ui does not implement playback.Observer", playback.ErrObserverUnavailable)

// Options configures a Service.
type Options struct {
	// DefaultLoop and DefaultVolume apply when no preferences were saved.
	DefaultLoop   bool
	DefaultVolume float64
	// Notifier, when set, posts desktop notifications on phase changes,
	// whether or not a UI is bound.
	Notifier notify.Notifier
}

// Service owns one engine and one coordinator for its whole life.
type Service struct {
	coord    *playback.Coordinator
	prefs    state.Interface
	notifier notify.Notifier
	log      logrus.FieldLogger

	mu      sync.Mutex
	wrapper *notify.Observer
	bound   bool
	loop    bool
	volume  float64
	muted   bool
	closed  bool
}

// New creates the service. It takes ownership of engine and prefs.
func New(engine player.Interface, prefs state.Interface, opts Options, log logrus.FieldLogger) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &Service{
		coord:    playback.New(engine, log),
		prefs:    prefs,
		notifier: opts.Notifier,
		log:      log.WithField("component", "host"),
		loop:     opts.DefaultLoop,
		volume:   opts.DefaultVolume,
	}

	saved, err := prefs.GetPreferences()
	switch {
	case err != nil:
		s.log.WithError(err).Warn("load preferences, using defaults")
	case saved != nil:
		s.loop = saved.Loop
		s.volume = saved.Volume
		s.muted = saved.Muted
	}
	s.coord.SetVolume(s.effectiveVolume())
	if err := s.coord.SetLoop(s.loop); err != nil {
		s.log.WithError(err).Debug("apply loop preference")
	}

	// Notifications continue while no UI is bound.
	_ = s.attachLocked(nil)
	return s
}

// Coordinator returns the session coordinator for issuing commands.
func (s *Service) Coordinator() *playback.Coordinator {
	return s.coord
}

// Bind attaches ui as the session observer, replacing any bound UI. The
// type is checked once here; a UI that is not a playback.Observer, or is a
// nil pointer, is rejected and the previous binding is kept.
func (s *Service) Bind(ui any) error {
	obs, ok := ui.(playback.Observer)
	if !ok || isNil(obs) {
		return ErrIncompatibleObserver
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return playback.ErrClosed
	}
	if err := s.attachLocked(obs); err != nil {
		return err
	}
	s.bound = true
	s.log.Debug("ui bound")
	return nil
}

// Unbind detaches the bound UI. Playback continues. Once Unbind returns
// the UI receives no further notifications.
func (s *Service) Unbind() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || !s.bound {
		return
	}
	s.bound = false
	if s.notifier != nil {
		_ = s.attachLocked(nil)
	} else {
		s.coord.DetachObserver()
	}
	s.log.Debug("ui unbound")
}

func isNil(obs playback.Observer) bool {
	if obs == nil {
		return true
	}
	v := reflect.ValueOf(obs)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return v.IsNil()
	default:
		return false
	}
}

// Bound reports whether a UI is attached.
func (s *Service) Bound() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bound
}

// attachLocked attaches obs, wrapped for notifications when enabled. With
// notifications disabled a nil obs is not attached.
func (s *Service) attachLocked(obs playback.Observer) error {
	prev := s.wrapper
	s.wrapper = nil

	var target playback.Observer = obs
	if s.notifier != nil {
		s.wrapper = notify.Wrap(obs, s.notifier, s.coord, s.log)
		target = s.wrapper
	}

	var err error
	if target != nil {
		err = s.coord.AttachObserver(target)
	}
	if prev != nil {
		prev.Close()
	}
	return err
}

// Play starts track with the current loop preference.
func (s *Service) Play(ctx context.Context, track playback.Track) error {
	s.mu.Lock()
	loop := s.loop
	s.mu.Unlock()
	return s.coord.PlayTrack(ctx, track, loop)
}

// PlayAsync runs Play on its own goroutine. The result is sent on the
// returned channel.
func (s *Service) PlayAsync(ctx context.Context, track playback.Track) <-chan error {
	s.mu.Lock()
	loop := s.loop
	s.mu.Unlock()
	return s.coord.PlayTrackAsync(ctx, track, loop)
}

func (s *Service) PauseTrack() error     { return s.coord.PauseTrack() }
func (s *Service) ResumeTrack() error    { return s.coord.ResumeTrack() }
func (s *Service) TogglePlayback() error { return s.coord.TogglePlayback() }
func (s *Service) StopAndRelease() error { return s.coord.StopAndRelease() }

func (s *Service) Seek(delta time.Duration) error      { return s.coord.Seek(delta) }
func (s *Service) SeekTo(position time.Duration) error { return s.coord.SeekTo(position) }

func (s *Service) Snapshot() playback.Status { return s.coord.Snapshot() }

// Loop reports the loop preference.
func (s *Service) Loop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loop
}

// SetLoop changes looping for the current track and saves the preference.
func (s *Service) SetLoop(enabled bool) error {
	if err := s.coord.SetLoop(enabled); err != nil {
		return err
	}
	s.mu.Lock()
	s.loop = enabled
	s.saveLocked()
	s.mu.Unlock()
	return nil
}

// ToggleLoop flips the loop preference and returns the new value.
func (s *Service) ToggleLoop() (bool, error) {
	enabled := !s.Loop()
	return enabled, s.SetLoop(enabled)
}

// Volume returns the volume level (0.0 to 1.0) and whether output is muted.
func (s *Service) Volume() (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume, s.muted
}

// SetVolume sets and saves the volume level. It unmutes.
func (s *Service) SetVolume(level float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.volume = max(0, min(level, 1))
	s.muted = false
	s.coord.SetVolume(s.effectiveVolume())
	s.saveLocked()
}

// AdjustVolume changes the volume by delta.
func (s *Service) AdjustVolume(delta float64) {
	s.mu.Lock()
	level := s.volume + delta
	s.mu.Unlock()
	s.SetVolume(level)
}

// ToggleMute mutes or unmutes output and saves the preference.
func (s *Service) ToggleMute() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.muted = !s.muted
	s.coord.SetVolume(s.effectiveVolume())
	s.saveLocked()
	return s.muted
}

func (s *Service) effectiveVolume() float64 {
	if s.muted {
		return 0
	}
	return s.volume
}

func (s *Service) saveLocked() {
	s.prefs.SavePreferences(state.Preferences{
		Volume: s.volume,
		Muted:  s.muted,
		Loop:   s.loop,
	})
}

// Close tears the session down: the UI is unbound, the coordinator closed
// (stopping the poller and releasing the engine) and preferences flushed.
// It is idempotent.
func (s *Service) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.bound = false
	wrapper := s.wrapper
	s.wrapper = nil
	s.mu.Unlock()

	err := s.coord.Close()
	if wrapper != nil {
		wrapper.Close()
	}
	if perr := s.prefs.Close(); perr != nil {
		err = errors.Join(err, fmt.Errorf("close preferences: %w", perr))
	}
	s.log.Info("host closed")
	return err
}
