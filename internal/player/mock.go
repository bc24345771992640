// internal/player/mock.go
package player

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Mock is a test double for Player. It is safe for concurrent use.
type Mock struct {
	mu sync.Mutex

	state      State
	loaded     string
	loop       bool
	volume     float64
	position   time.Duration
	duration   time.Duration
	loadErr    error
	loadHook   func(ctx context.Context, url string) error
	loadCalls  []string
	seekCalls  []time.Duration
	releases   int
	rewinds    int
	events     []string
	onFinished func()
}

// NewMock creates a new mock engine for testing.
func NewMock() *Mock {
	return &Mock{
		state:    Stopped,
		volume:   1,
		duration: 3 * time.Minute,
	}
}

func (m *Mock) Load(ctx context.Context, url string, loop bool) error {
	m.mu.Lock()
	m.loadCalls = append(m.loadCalls, url)
	hook := m.loadHook
	loadErr := m.loadErr
	m.mu.Unlock()

	if hook != nil {
		if err := hook(ctx, url); err != nil {
			return err
		}
	}
	if loadErr != nil {
		return fmt.Errorf("%w: %w", ErrMediaLoad, loadErr)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	m.releaseLocked()
	m.loaded = url
	m.loop = loop
	m.position = 0
	m.state = Paused
	m.events = append(m.events, "load:"+url)
	return nil
}

func (m *Mock) Play() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loaded == "" {
		return ErrNotLoaded
	}
	m.state = Playing
	return nil
}

func (m *Mock) Pause() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loaded == "" {
		return ErrNotLoaded
	}
	m.state = Paused
	return nil
}

func (m *Mock) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.releaseLocked()
}

func (m *Mock) releaseLocked() {
	if m.loaded != "" {
		m.releases++
		m.events = append(m.events, "release:"+m.loaded)
	}
	m.loaded = ""
	m.position = 0
	m.state = Stopped
}

func (m *Mock) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Mock) IsPlaying() bool { return m.State() == Playing }

func (m *Mock) Position() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.position
}

func (m *Mock) Duration() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loaded == "" {
		return 0
	}
	return m.duration
}

func (m *Mock) Seek(delta time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loaded == "" {
		return ErrNotLoaded
	}
	m.seekCalls = append(m.seekCalls, delta)
	m.position = max(0, min(m.position+delta, m.duration))
	return nil
}

func (m *Mock) SeekTo(position time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loaded == "" {
		return ErrNotLoaded
	}
	m.position = max(0, min(position, m.duration))
	return nil
}

func (m *Mock) SetLoop(enabled bool) {
	m.mu.Lock()
	m.loop = enabled
	m.mu.Unlock()
}

func (m *Mock) Loop() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loop
}

func (m *Mock) SetVolume(level float64) {
	m.mu.Lock()
	m.volume = max(0, min(level, 1))
	m.mu.Unlock()
}

func (m *Mock) Volume() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.volume
}

func (m *Mock) OnFinished(fn func()) {
	m.mu.Lock()
	m.onFinished = fn
	m.mu.Unlock()
}

// Test helpers

// SetLoadError makes subsequent loads fail with ErrMediaLoad wrapping err.
func (m *Mock) SetLoadError(err error) {
	m.mu.Lock()
	m.loadErr = err
	m.mu.Unlock()
}

// SetLoadHook installs fn to run inside Load before the session is
// installed. Returning an error aborts the load with that error.
func (m *Mock) SetLoadHook(fn func(ctx context.Context, url string) error) {
	m.mu.Lock()
	m.loadHook = fn
	m.mu.Unlock()
}

func (m *Mock) LoadCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.loadCalls...)
}

func (m *Mock) SeekCalls() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]time.Duration(nil), m.seekCalls...)
}

// Releases returns how many loaded sessions were released.
func (m *Mock) Releases() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.releases
}

// Events returns the ordered load/release history.
func (m *Mock) Events() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.events...)
}

// Loaded returns the URL of the loaded session, or "".
func (m *Mock) Loaded() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loaded
}

func (m *Mock) Rewinds() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rewinds
}

func (m *Mock) SetDuration(d time.Duration) {
	m.mu.Lock()
	m.duration = d
	m.mu.Unlock()
}

func (m *Mock) SetPosition(d time.Duration) {
	m.mu.Lock()
	m.position = d
	m.mu.Unlock()
}

// Advance moves the position forward by d if the session is playing.
func (m *Mock) Advance(d time.Duration) {
	m.mu.Lock()
	if m.state == Playing {
		m.position += d
	}
	m.mu.Unlock()
}

// SimulateFinished simulates the natural end of the loaded track. With
// looping enabled the session restarts at zero; otherwise it is released and
// the finished callback runs on the calling goroutine.
func (m *Mock) SimulateFinished() {
	m.mu.Lock()
	if m.loaded == "" {
		m.mu.Unlock()
		return
	}
	if m.loop {
		m.position = 0
		m.rewinds++
		m.mu.Unlock()
		return
	}
	m.releaseLocked()
	fn := m.onFinished
	m.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// Verify Mock implements Interface at compile time.
var _ Interface = (*Mock)(nil)
