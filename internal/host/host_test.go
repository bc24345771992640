package host

import (
	"context"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/streamer/internal/notify"
	"github.com/llehouerou/streamer/internal/playback"
	"github.com/llehouerou/streamer/internal/player"
	"github.com/llehouerou/streamer/internal/state"
)

var song = playback.Track{
	Artist:    "Stereolab",
	SongID:    "s1",
	Title:     "Cybele's Reverie",
	Album:     "Emperor Tomato Ketchup",
	StreamURL: "https://cdn.example/cybele.mp3",
}

type recorder struct {
	mu     sync.Mutex
	phases []playback.Phase
	ticks  int
}

func (r *recorder) OnPlaybackPhaseChanged(p playback.Phase) {
	r.mu.Lock()
	r.phases = append(r.phases, p)
	r.mu.Unlock()
}

func (r *recorder) OnPositionTick(time.Duration) {
	r.mu.Lock()
	r.ticks++
	r.mu.Unlock()
}

func (r *recorder) counts() (phases, ticks int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.phases), r.ticks
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []notify.Notification
}

func (f *fakeNotifier) Notify(n notify.Notification) (uint32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, n)
	return uint32(len(f.sent)), nil
}

func (f *fakeNotifier) Close(uint32) error { return nil }

func (f *fakeNotifier) titles() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.sent))
	for _, n := range f.sent {
		out = append(out, n.Title)
	}
	return out
}

func newTestService(t *testing.T, opts Options) (*Service, *player.Mock, *state.Mock) {
	t.Helper()
	log, _ := test.NewNullLogger()
	engine := player.NewMock()
	prefs := state.NewMock()
	return New(engine, prefs, opts, log), engine, prefs
}

func TestBind_RejectsIncompatibleUI(t *testing.T) {
	s, _, _ := newTestService(t, Options{DefaultLoop: true, DefaultVolume: 1})
	defer s.Close()

	err := s.Bind("not an observer")
	require.ErrorIs(t, err, ErrIncompatibleObserver)
	assert.ErrorIs(t, err, playback.ErrObserverUnavailable)
	assert.False(t, s.Bound())

	err = s.Bind(nil)
	assert.ErrorIs(t, err, ErrIncompatibleObserver)

	assert.ErrorIs(t, s.Bind((*recorder)(nil)), ErrIncompatibleObserver)
	assert.ErrorIs(t, s.Bind((*playback.Subscription)(nil)), ErrIncompatibleObserver)
	assert.False(t, s.Bound())
}

func TestBind_KeepsPreviousOnRejection(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		s, _, _ := newTestService(t, Options{DefaultLoop: true, DefaultVolume: 1})
		defer s.Close()

		ui := &recorder{}
		require.NoError(t, s.Bind(ui))
		require.ErrorIs(t, s.Bind(42), ErrIncompatibleObserver)

		require.NoError(t, s.Play(context.Background(), song))
		phases, _ := ui.counts()
		assert.Equal(t, 2, phases, "attach phase plus Playing")
		assert.True(t, s.Bound())
	})
}

func TestBind_SendsCurrentState(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		s, _, _ := newTestService(t, Options{DefaultLoop: true, DefaultVolume: 1})
		defer s.Close()

		ui := &recorder{}
		require.NoError(t, s.Bind(ui))

		phases, ticks := ui.counts()
		assert.Equal(t, 1, phases)
		assert.Equal(t, 1, ticks)
		assert.Equal(t, []playback.Phase{playback.PhaseIdle}, ui.phases)
	})
}

func TestUnbind_PlaybackContinues(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		s, engine, _ := newTestService(t, Options{DefaultLoop: true, DefaultVolume: 1})
		defer s.Close()

		ui := &recorder{}
		require.NoError(t, s.Bind(ui))
		require.NoError(t, s.Play(context.Background(), song))

		s.Unbind()
		assert.False(t, s.Bound())
		phases, ticks := ui.counts()

		for range 3 {
			engine.Advance(time.Second)
			time.Sleep(playback.TickInterval)
			synctest.Wait()
		}

		gotPhases, gotTicks := ui.counts()
		assert.Equal(t, phases, gotPhases, "no phase calls after unbind")
		assert.Equal(t, ticks, gotTicks, "no ticks after unbind")
		assert.Equal(t, playback.PhasePlaying, s.Coordinator().Phase())
		assert.True(t, engine.IsPlaying())
	})
}

func TestRebind_ResyncsOnce(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		s, engine, _ := newTestService(t, Options{DefaultLoop: true, DefaultVolume: 1})
		defer s.Close()

		require.NoError(t, s.Play(context.Background(), song))
		engine.Advance(2 * time.Second)
		time.Sleep(playback.TickInterval)
		synctest.Wait()

		sub := playback.NewSubscription()
		defer sub.Close()
		require.NoError(t, s.Bind(sub))

		require.Len(t, sub.Events, 1)
		ev := (<-sub.Events).(playback.Resync)
		assert.Equal(t, playback.PhasePlaying, ev.Status.Phase)
		require.NotNil(t, ev.Status.Track)
		assert.Equal(t, song.Title, ev.Status.Track.Title)
		assert.Equal(t, 2*time.Second, ev.Status.Position)
	})
}

func TestNew_AppliesSavedPreferences(t *testing.T) {
	log, _ := test.NewNullLogger()
	engine := player.NewMock()
	prefs := state.NewMock()
	prefs.SetPreferences(&state.Preferences{Volume: 0.3, Loop: false})

	s := New(engine, prefs, Options{DefaultLoop: true, DefaultVolume: 1}, log)
	defer s.Close()

	assert.InDelta(t, 0.3, engine.Volume(), 1e-9)
	assert.False(t, s.Loop())
	assert.False(t, engine.Loop())
	assert.Equal(t, 0, prefs.Saves(), "loading must not save")
}

func TestNew_DefaultsWithoutPreferences(t *testing.T) {
	s, engine, _ := newTestService(t, Options{DefaultLoop: true, DefaultVolume: 0.7})
	defer s.Close()

	assert.InDelta(t, 0.7, engine.Volume(), 1e-9)
	assert.True(t, s.Loop())
	assert.True(t, engine.Loop())
}

func TestNew_MutedPreference(t *testing.T) {
	log, _ := test.NewNullLogger()
	engine := player.NewMock()
	prefs := state.NewMock()
	prefs.SetPreferences(&state.Preferences{Volume: 0.8, Muted: true, Loop: true})

	s := New(engine, prefs, Options{}, log)
	defer s.Close()

	assert.Zero(t, engine.Volume())
	level, muted := s.Volume()
	assert.InDelta(t, 0.8, level, 1e-9)
	assert.True(t, muted)
}

func TestVolumeAndLoop_ArePersisted(t *testing.T) {
	s, engine, prefs := newTestService(t, Options{DefaultLoop: true, DefaultVolume: 0.5})
	defer s.Close()

	s.AdjustVolume(0.25)
	assert.InDelta(t, 0.75, engine.Volume(), 1e-9)

	s.AdjustVolume(1)
	assert.InDelta(t, 1.0, engine.Volume(), 1e-9, "clamped")

	assert.True(t, s.ToggleMute())
	assert.Zero(t, engine.Volume())

	enabled, err := s.ToggleLoop()
	require.NoError(t, err)
	assert.False(t, enabled)
	assert.False(t, engine.Loop())

	saved, err := prefs.GetPreferences()
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, state.Preferences{Volume: 1, Muted: true, Loop: false}, *saved)
	assert.Equal(t, 4, prefs.Saves())

	s.SetVolume(0.2)
	level, muted := s.Volume()
	assert.InDelta(t, 0.2, level, 1e-9)
	assert.False(t, muted, "setting a level unmutes")
}

func TestPlay_UsesLoopPreference(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		s, engine, _ := newTestService(t, Options{DefaultLoop: false, DefaultVolume: 1})
		defer s.Close()

		require.NoError(t, s.Play(context.Background(), song))
		assert.False(t, s.Coordinator().Snapshot().Loop)

		engine.SimulateFinished()
		synctest.Wait()
		assert.Equal(t, playback.PhaseStopped, s.Coordinator().Phase())
	})
}

func TestPlayAsync_UsesLoopSetThroughService(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		s, engine, prefs := newTestService(t, Options{DefaultLoop: true, DefaultVolume: 1})
		defer s.Close()

		require.NoError(t, s.Play(context.Background(), song))
		require.NoError(t, s.SetLoop(false))
		s.SetVolume(0.2)

		require.NoError(t, <-s.PlayAsync(context.Background(), song))
		assert.False(t, s.Snapshot().Loop)
		assert.False(t, engine.Loop())

		s.AdjustVolume(0.05)
		level, _ := s.Volume()
		assert.InDelta(t, 0.25, level, 1e-9)
		assert.InDelta(t, 0.25, engine.Volume(), 1e-9)

		saved, err := prefs.GetPreferences()
		require.NoError(t, err)
		require.NotNil(t, saved)
		assert.False(t, saved.Loop)
		assert.InDelta(t, 0.25, saved.Volume, 1e-9)
	})
}

func TestNotifications_ContinueWhileUnbound(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		n := &fakeNotifier{}
		s, _, _ := newTestService(t, Options{DefaultLoop: true, DefaultVolume: 1, Notifier: n})
		defer s.Close()

		ui := &recorder{}
		require.NoError(t, s.Bind(ui))
		s.Unbind()

		require.NoError(t, s.Play(context.Background(), song))
		synctest.Wait()

		assert.Equal(t, []string{song.Title}, n.titles())
		phases, _ := ui.counts()
		assert.Equal(t, 1, phases, "only the attach-time phase")
	})
}

func TestClose(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		s, engine, prefs := newTestService(t, Options{DefaultLoop: true, DefaultVolume: 1, Notifier: &fakeNotifier{}})

		ui := &recorder{}
		require.NoError(t, s.Bind(ui))
		require.NoError(t, s.Play(context.Background(), song))

		require.NoError(t, s.Close())
		require.NoError(t, s.Close(), "idempotent")

		assert.True(t, prefs.IsClosed())
		assert.False(t, s.Bound())
		assert.Equal(t, player.Stopped, engine.State())
		assert.False(t, s.Coordinator().PollerActive())
		assert.ErrorIs(t, s.Bind(ui), playback.ErrClosed)
	})
}
