package player

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/sirupsen/logrus"
)

const (
	speakerSampleRate = beep.SampleRate(44100)
	resampleQuality   = 4
)

var (
	speakerMu          sync.Mutex
	speakerInitialized bool
)

// initSpeaker initializes the process-wide speaker once.
func initSpeaker() error {
	speakerMu.Lock()
	defer speakerMu.Unlock()
	if speakerInitialized {
		return nil
	}
	if err := speaker.Init(speakerSampleRate, speakerSampleRate.N(time.Second/10)); err != nil {
		return fmt.Errorf("init speaker: %w", err)
	}
	speakerInitialized = true
	return nil
}

// session is one decoded stream wired to the speaker.
type session struct {
	id       uint64
	location string
	kind     Format
	stream   beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	volume   *effects.Volume
}

// Player streams one track at a time through the beep speaker.
type Player struct {
	mu sync.Mutex

	fetcher *Fetcher
	out     output
	log     logrus.FieldLogger

	state      State
	sess       *session
	nextID     uint64
	loop       atomic.Bool
	rewinds    atomic.Uint64
	volume     float64
	onFinished func()
}

// New creates a Player that opens streams through fetcher.
func New(fetcher *Fetcher, log logrus.FieldLogger) *Player {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Player{
		fetcher: fetcher,
		out:     speakerOutput{},
		log:     log.WithField("component", "engine"),
		state:   Stopped,
		volume:  1,
	}
}

// Load fetches and decodes url. The network and decode work happens without
// holding the player lock. The previous session is released and the new one
// installed in one step, and only if ctx is still live at that point, so a
// cancelled load never replaces or tears down a newer session.
func (p *Player) Load(ctx context.Context, url string, loop bool) error {
	src, err := p.fetcher.Open(ctx, url)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMediaLoad, err)
	}
	stream, format, kind, err := decode(src)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMediaLoad, err)
	}
	if err := p.out.Init(); err != nil {
		stream.Close()
		return fmt.Errorf("%w: %w", ErrMediaLoad, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		stream.Close()
		return err
	}
	p.releaseLocked()

	p.loop.Store(loop)
	p.nextID++
	s := &session{
		id:       p.nextID,
		location: url,
		kind:     kind,
		stream:   stream,
		format:   format,
	}

	looper := &loopStreamer{
		src:      stream,
		loop:     &p.loop,
		onRewind: func() { p.rewinds.Add(1) },
	}
	var out beep.Streamer = looper
	if format.SampleRate != speakerSampleRate {
		out = beep.Resample(resampleQuality, format.SampleRate, speakerSampleRate, looper)
	}
	s.ctrl = &beep.Ctrl{Streamer: out, Paused: true}
	s.volume = &effects.Volume{Streamer: s.ctrl, Base: 2}
	applyVolume(s.volume, p.volume)

	id := s.id
	p.out.Play(beep.Seq(s.volume, beep.Callback(func() {
		// Runs under the speaker lock; hand off before touching player state.
		go p.finished(id)
	})))

	p.sess = s
	p.state = Paused

	p.log.WithFields(logrus.Fields{
		"location": url,
		"format":   kind,
		"rate":     int(format.SampleRate),
		"duration": format.SampleRate.D(stream.Len()),
		"loop":     loop,
	}).Info("stream loaded")
	return nil
}

// finished handles the natural end of session id.
func (p *Player) finished(id uint64) {
	p.mu.Lock()
	if p.sess == nil || p.sess.id != id {
		p.mu.Unlock()
		return
	}
	p.log.WithField("location", p.sess.location).Debug("stream finished")
	p.releaseLocked()
	fn := p.onFinished
	p.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// Play starts or resumes output of the loaded session.
func (p *Player) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sess == nil {
		return ErrNotLoaded
	}
	if p.state == Playing {
		return nil
	}
	p.out.Lock()
	p.sess.ctrl.Paused = false
	p.out.Unlock()
	p.state = Playing
	return nil
}

// Pause suspends output, keeping the position.
func (p *Player) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sess == nil {
		return ErrNotLoaded
	}
	if p.state == Paused {
		return nil
	}
	p.out.Lock()
	p.sess.ctrl.Paused = true
	p.out.Unlock()
	p.state = Paused
	return nil
}

// Stop releases the current session.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.releaseLocked()
}

func (p *Player) releaseLocked() {
	if p.sess == nil {
		p.state = Stopped
		return
	}

	// Clearing the speaker drops the Seq, so the end callback never fires
	// for a released session.
	p.out.Clear()
	if err := p.sess.stream.Close(); err != nil {
		p.log.WithError(err).Debug("close stream")
	}
	p.log.WithField("location", p.sess.location).Debug("session released")
	p.sess = nil
	p.state = Stopped
}

// State returns the engine state.
func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// IsPlaying reports whether output is running.
func (p *Player) IsPlaying() bool {
	return p.State() == Playing
}

// Position returns the playback offset of the current session, or zero.
func (p *Player) Position() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sess == nil {
		return 0
	}
	p.out.Lock()
	pos := p.sess.stream.Position()
	p.out.Unlock()
	return p.sess.format.SampleRate.D(pos)
}

// Duration returns the length of the current session, or zero.
func (p *Player) Duration() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sess == nil {
		return 0
	}
	return p.sess.format.SampleRate.D(p.sess.stream.Len())
}

// Seek moves the position by delta, clamped to the stream bounds.
func (p *Player) Seek(delta time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sess == nil {
		return ErrNotLoaded
	}
	p.out.Lock()
	defer p.out.Unlock()
	target := p.sess.stream.Position() + p.sess.format.SampleRate.N(delta)
	return p.seekLocked(target)
}

// SeekTo moves to an absolute position, clamped to the stream bounds.
func (p *Player) SeekTo(position time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sess == nil {
		return ErrNotLoaded
	}
	p.out.Lock()
	defer p.out.Unlock()
	return p.seekLocked(p.sess.format.SampleRate.N(position))
}

// seekLocked expects both the player lock and the speaker lock.
func (p *Player) seekLocked(sample int) error {
	// Seeking to Len() would end the track on the next read, so stop one
	// sample short.
	sample = max(0, min(sample, p.sess.stream.Len()-1))
	return p.sess.stream.Seek(sample)
}

// SetLoop toggles looping for the current and subsequently loaded tracks.
func (p *Player) SetLoop(enabled bool) {
	p.loop.Store(enabled)
}

// Loop reports whether looping is enabled.
func (p *Player) Loop() bool {
	return p.loop.Load()
}

// Rewinds returns how many times a looping session restarted from zero.
func (p *Player) Rewinds() uint64 {
	return p.rewinds.Load()
}

// OnFinished registers the end-of-track callback.
func (p *Player) OnFinished(fn func()) {
	p.mu.Lock()
	p.onFinished = fn
	p.mu.Unlock()
}

// Format returns the detected format of the current session, or "".
func (p *Player) Format() Format {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sess == nil {
		return ""
	}
	return p.sess.kind
}
