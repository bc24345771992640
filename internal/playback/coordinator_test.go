package playback

import (
	"context"
	"errors"
	"io"
	"math/rand/v2"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/streamer/internal/player"
)

var (
	trackA = Track{Artist: "Daft Punk", SongID: "a", Title: "Veridis Quo", StreamURL: "https://cdn.example/a.mp3"}
	trackB = Track{Artist: "Air", SongID: "b", Title: "La Femme d'Argent", StreamURL: "https://cdn.example/b.mp3"}
)

// recorder is an Observer that records notifications as strings.
type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) OnPlaybackPhaseChanged(phase Phase) {
	r.mu.Lock()
	r.events = append(r.events, "phase:"+phase.String())
	r.mu.Unlock()
}

func (r *recorder) OnPositionTick(position time.Duration) {
	r.mu.Lock()
	r.events = append(r.events, "tick:"+position.String())
	r.mu.Unlock()
}

func (r *recorder) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func (r *recorder) Reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}

type panicky struct{}

func (panicky) OnPlaybackPhaseChanged(Phase) { panic("view destroyed") }
func (panicky) OnPositionTick(time.Duration) {}

func newTestCoordinator(t *testing.T) (*Coordinator, *player.Mock) {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	engine := player.NewMock()
	return New(engine, log), engine
}

func assertInvariant(t *testing.T, c *Coordinator) {
	t.Helper()
	phase := c.Phase()
	assert.Equal(t, phase == PhasePlaying, c.PollerActive(), "phase %s, poller active %v", phase, c.PollerActive())
	if phase == PhasePlaying {
		assert.NotNil(t, c.Snapshot().Track)
	}
}

func TestCoordinator_InitialState(t *testing.T) {
	c, _ := newTestCoordinator(t)
	defer c.Close()

	s := c.Snapshot()
	assert.Equal(t, PhaseIdle, s.Phase)
	assert.Nil(t, s.Track)
	assert.False(t, c.PollerActive())
}

func TestCoordinator_PlayTrack(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c, engine := newTestCoordinator(t)
		rec := &recorder{}
		require.NoError(t, c.AttachObserver(rec))
		rec.Reset()

		require.NoError(t, c.PlayTrack(context.Background(), trackA, false))

		assert.Equal(t, PhasePlaying, c.Phase())
		assert.True(t, c.PollerActive())
		assert.Equal(t, player.Playing, engine.State())
		assert.Equal(t, trackA.StreamURL, engine.Loaded())
		assert.Equal(t, []string{"phase:Playing"}, rec.Events())

		s := c.Snapshot()
		require.NotNil(t, s.Track)
		assert.Equal(t, trackA, *s.Track)
		assert.False(t, s.Loop)

		require.NoError(t, c.Close())
	})
}

func TestCoordinator_TicksForwardPosition(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c, engine := newTestCoordinator(t)
		rec := &recorder{}
		require.NoError(t, c.PlayTrack(context.Background(), trackA, true))
		require.NoError(t, c.AttachObserver(rec))
		rec.Reset()

		engine.Advance(time.Second)
		time.Sleep(TickInterval)
		synctest.Wait()
		engine.Advance(time.Second)
		time.Sleep(TickInterval)
		synctest.Wait()

		assert.Equal(t, []string{"tick:1s", "tick:2s"}, rec.Events())
		assert.Equal(t, 2*time.Second, c.Snapshot().Position)

		require.NoError(t, c.Close())
	})
}

func TestCoordinator_PlayingIffPollerActive(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c, engine := newTestCoordinator(t)
		rng := rand.New(rand.NewPCG(7, 11))
		ctx := context.Background()

		commands := []func(){
			func() { _ = c.PlayTrack(ctx, trackA, rng.IntN(2) == 0) },
			func() { _ = c.PlayTrack(ctx, trackB, rng.IntN(2) == 0) },
			func() { _ = c.PauseTrack() },
			func() { _ = c.ResumeTrack() },
			func() { _ = c.TogglePlayback() },
			func() { _ = c.StopAndRelease() },
			func() { _ = c.SetLoop(rng.IntN(2) == 0) },
			func() { _ = c.Seek(10 * time.Second) },
			func() { engine.SimulateFinished() },
			func() { time.Sleep(TickInterval); synctest.Wait() },
			func() {
				engine.SetLoadError(errors.New("connection reset"))
				_ = c.PlayTrack(ctx, trackA, false)
				engine.SetLoadError(nil)
			},
		}

		for range 500 {
			commands[rng.IntN(len(commands))]()
			assertInvariant(t, c)
		}

		require.NoError(t, c.Close())
		assertInvariant(t, c)
	})
}

func TestCoordinator_PauseResumeKeepsPosition(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c, engine := newTestCoordinator(t)
		require.NoError(t, c.PlayTrack(context.Background(), trackA, false))

		engine.Advance(2500 * time.Millisecond)
		time.Sleep(2 * TickInterval)
		synctest.Wait()

		require.NoError(t, c.PauseTrack())
		assert.Equal(t, PhasePaused, c.Phase())
		assert.False(t, c.PollerActive())
		paused := c.Snapshot().Position
		assert.Equal(t, 2500*time.Millisecond, paused)

		require.NoError(t, c.ResumeTrack())
		assert.Equal(t, PhasePlaying, c.Phase())
		assert.True(t, c.PollerActive())
		assert.Equal(t, paused, c.Snapshot().Position)

		last := paused
		for range 3 {
			engine.Advance(time.Second)
			time.Sleep(TickInterval)
			synctest.Wait()
			pos := c.Snapshot().Position
			assert.Greater(t, pos, last)
			last = pos
		}

		require.NoError(t, c.Close())
	})
}

func TestCoordinator_PauseAndResumeOutsideTheirPhaseAreNoOps(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c, engine := newTestCoordinator(t)

		require.NoError(t, c.PauseTrack())
		require.NoError(t, c.ResumeTrack())
		assert.Equal(t, PhaseIdle, c.Phase())

		require.NoError(t, c.PlayTrack(context.Background(), trackA, false))
		require.NoError(t, c.ResumeTrack())
		assert.Equal(t, PhasePlaying, c.Phase())

		require.NoError(t, c.PauseTrack())
		require.NoError(t, c.PauseTrack())
		assert.Equal(t, PhasePaused, c.Phase())
		assert.Equal(t, player.Paused, engine.State())

		require.NoError(t, c.StopAndRelease())
		require.NoError(t, c.ResumeTrack())
		assert.Equal(t, PhaseStopped, c.Phase(), "resume does not leave Stopped")

		require.NoError(t, c.Close())
	})
}

func TestCoordinator_NoTickAfterPause(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c, engine := newTestCoordinator(t)
		rec := &recorder{}
		require.NoError(t, c.AttachObserver(rec))
		require.NoError(t, c.PlayTrack(context.Background(), trackA, false))

		engine.Advance(time.Second)
		time.Sleep(TickInterval + TickInterval/2)
		require.NoError(t, c.PauseTrack())
		time.Sleep(5 * TickInterval)
		synctest.Wait()

		events := rec.Events()
		require.NotEmpty(t, events)
		assert.Equal(t, "phase:Paused", events[len(events)-1])

		require.NoError(t, c.Close())
	})
}

func TestCoordinator_TogglePlayback(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c, _ := newTestCoordinator(t)

		require.NoError(t, c.TogglePlayback())
		assert.Equal(t, PhaseIdle, c.Phase())

		require.NoError(t, c.PlayTrack(context.Background(), trackA, true))
		require.NoError(t, c.TogglePlayback())
		assert.Equal(t, PhasePaused, c.Phase())
		require.NoError(t, c.TogglePlayback())
		assert.Equal(t, PhasePlaying, c.Phase())

		require.NoError(t, c.Close())
	})
}

func TestCoordinator_StopAndRelease(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c, engine := newTestCoordinator(t)
		rec := &recorder{}
		require.NoError(t, c.AttachObserver(rec))
		require.NoError(t, c.PlayTrack(context.Background(), trackA, false))
		rec.Reset()

		require.NoError(t, c.StopAndRelease())

		assert.Equal(t, PhaseStopped, c.Phase())
		assert.False(t, c.PollerActive())
		assert.Nil(t, c.Snapshot().Track)
		assert.Empty(t, engine.Loaded())
		assert.Equal(t, 1, engine.Releases())
		assert.Equal(t, []string{"phase:Stopped"}, rec.Events())

		// Idempotent.
		require.NoError(t, c.StopAndRelease())
		assert.Equal(t, 1, engine.Releases())
		assert.Equal(t, []string{"phase:Stopped"}, rec.Events())

		require.NoError(t, c.Close())
	})
}

func TestCoordinator_DetachSilencesTicksAndReattachResyncs(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c, engine := newTestCoordinator(t)
		rec := &recorder{}
		require.NoError(t, c.AttachObserver(rec))
		require.NoError(t, c.PlayTrack(context.Background(), trackA, true))

		c.DetachObserver()
		rec.Reset()

		for range 5 {
			engine.Advance(time.Second)
			time.Sleep(TickInterval)
			synctest.Wait()
		}
		assert.Empty(t, rec.Events())
		assert.Equal(t, PhasePlaying, c.Phase(), "detach does not stop playback")
		assert.Equal(t, 5*time.Second, c.Snapshot().Position)

		sub := NewSubscription()
		defer sub.Close()
		require.NoError(t, c.AttachObserver(sub))

		require.Len(t, sub.Events, 1)
		ev := <-sub.Events
		resync, ok := ev.(Resync)
		require.True(t, ok, "got %T", ev)
		assert.Equal(t, PhasePlaying, resync.Status.Phase)
		assert.Equal(t, 5*time.Second, resync.Status.Position)
		require.NotNil(t, resync.Status.Track)
		assert.Equal(t, trackA.Title, resync.Status.Track.Title)

		require.NoError(t, c.Close())
	})
}

func TestCoordinator_AttachWithoutResyncerSendsPhaseThenPosition(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c, engine := newTestCoordinator(t)
		require.NoError(t, c.PlayTrack(context.Background(), trackA, false))
		engine.Advance(3 * time.Second)
		require.NoError(t, c.PauseTrack())

		rec := &recorder{}
		require.NoError(t, c.AttachObserver(rec))

		assert.Equal(t, []string{"phase:Paused", "tick:3s"}, rec.Events())
		assert.Equal(t, PhasePaused, c.Phase(), "attach does not alter playback")

		require.NoError(t, c.Close())
	})
}

func TestCoordinator_AttachReplacesPreviousObserver(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c, _ := newTestCoordinator(t)
		first, second := &recorder{}, &recorder{}
		require.NoError(t, c.AttachObserver(first))
		require.NoError(t, c.AttachObserver(second))
		first.Reset()
		second.Reset()

		require.NoError(t, c.PlayTrack(context.Background(), trackA, false))

		assert.Empty(t, first.Events())
		assert.Equal(t, []string{"phase:Playing"}, second.Events())

		require.NoError(t, c.Close())
	})
}

func TestCoordinator_AttachNilObserver(t *testing.T) {
	c, _ := newTestCoordinator(t)
	defer c.Close()

	err := c.AttachObserver(nil)
	assert.ErrorIs(t, err, ErrObserverUnavailable)
}

func TestCoordinator_SwitchTrackReleasesPreviousOnce(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c, engine := newTestCoordinator(t)
		ctx := context.Background()

		require.NoError(t, c.PlayTrack(ctx, trackA, false))
		require.NoError(t, c.PlayTrack(ctx, trackB, true))

		assert.Equal(t, []string{
			"load:" + trackA.StreamURL,
			"release:" + trackA.StreamURL,
			"load:" + trackB.StreamURL,
		}, engine.Events())
		assert.Equal(t, 1, engine.Releases())
		assert.Equal(t, trackB.StreamURL, engine.Loaded())
		assert.True(t, engine.Loop())
		assert.True(t, c.Snapshot().Loop)
		assertInvariant(t, c)

		require.NoError(t, c.Close())
	})
}

func TestCoordinator_PlayTrackSupersedesLoadInProgress(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c, engine := newTestCoordinator(t)
		engine.SetLoadHook(func(ctx context.Context, url string) error {
			if url != trackA.StreamURL {
				return nil
			}
			<-ctx.Done()
			return ctx.Err()
		})

		resultA := c.PlayTrackAsync(context.Background(), trackA, false)
		synctest.Wait()
		assert.Equal(t, []string{trackA.StreamURL}, engine.LoadCalls())

		require.NoError(t, c.PlayTrack(context.Background(), trackB, true))

		assert.ErrorIs(t, <-resultA, ErrSuperseded)
		assert.Equal(t, PhasePlaying, c.Phase())
		assert.Equal(t, trackB.StreamURL, engine.Loaded())
		assert.Equal(t, []string{"load:" + trackB.StreamURL}, engine.Events())
		assertInvariant(t, c)

		require.NoError(t, c.Close())
	})
}

func TestCoordinator_StopCancelsLoadInProgress(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c, engine := newTestCoordinator(t)
		engine.SetLoadHook(func(ctx context.Context, _ string) error {
			<-ctx.Done()
			return ctx.Err()
		})

		result := c.PlayTrackAsync(context.Background(), trackA, false)
		synctest.Wait()
		require.NoError(t, c.StopAndRelease())

		assert.ErrorIs(t, <-result, ErrSuperseded)
		assert.Equal(t, PhaseStopped, c.Phase())
		assert.Empty(t, engine.Loaded())
		assertInvariant(t, c)

		require.NoError(t, c.Close())
	})
}

func TestCoordinator_CommandsWhileLoading(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c, engine := newTestCoordinator(t)
		release := make(chan struct{})
		engine.SetLoadHook(func(context.Context, string) error {
			<-release
			return nil
		})

		result := c.PlayTrackAsync(context.Background(), trackA, false)
		synctest.Wait()

		// The session lock is free while the stream loads.
		rec := &recorder{}
		require.NoError(t, c.AttachObserver(rec))
		require.NoError(t, c.PauseTrack())
		assert.Equal(t, PhaseIdle, c.Phase())

		close(release)
		require.NoError(t, <-result)
		assert.Equal(t, PhasePlaying, c.Phase())
		assert.Equal(t, []string{"phase:Idle", "tick:0s", "phase:Playing"}, rec.Events())

		require.NoError(t, c.Close())
	})
}

func TestCoordinator_LoopedTrackRestarts(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c, engine := newTestCoordinator(t)
		require.NoError(t, c.PlayTrack(context.Background(), trackA, true))

		engine.Advance(42 * time.Second)
		time.Sleep(TickInterval)
		synctest.Wait()
		require.Equal(t, 42*time.Second, c.Snapshot().Position)

		engine.SimulateFinished()
		time.Sleep(TickInterval)
		synctest.Wait()

		assert.Equal(t, PhasePlaying, c.Phase())
		assert.True(t, c.PollerActive())
		assert.Equal(t, time.Duration(0), c.Snapshot().Position)
		assert.Equal(t, 1, engine.Rewinds())
		assert.Len(t, engine.LoadCalls(), 1, "no reload")

		require.NoError(t, c.Close())
	})
}

func TestCoordinator_TrackEndWithoutLoopStops(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c, engine := newTestCoordinator(t)
		rec := &recorder{}
		require.NoError(t, c.AttachObserver(rec))
		require.NoError(t, c.PlayTrack(context.Background(), trackA, false))
		rec.Reset()

		engine.SimulateFinished()
		time.Sleep(3 * TickInterval)
		synctest.Wait()

		assert.Equal(t, PhaseStopped, c.Phase())
		assert.False(t, c.PollerActive())
		assert.Equal(t, []string{"phase:Stopped"}, rec.Events())

		// The finished track stays selected and can be replayed.
		s := c.Snapshot()
		require.NotNil(t, s.Track)
		assert.Equal(t, trackA.SongID, s.Track.SongID)

		require.NoError(t, c.PlayTrack(context.Background(), *s.Track, false))
		assert.Equal(t, PhasePlaying, c.Phase())

		require.NoError(t, c.Close())
	})
}

func TestCoordinator_StaleCompletionIgnored(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c, _ := newTestCoordinator(t)
		require.NoError(t, c.PlayTrack(context.Background(), trackA, false))

		// A completion from a session that was already replaced arrives late.
		c.handleFinished()

		assert.Equal(t, PhasePlaying, c.Phase())
		assert.True(t, c.PollerActive())

		require.NoError(t, c.Close())
	})
}

func TestCoordinator_LoadErrorLeavesStopped(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c, engine := newTestCoordinator(t)
		rec := &recorder{}
		require.NoError(t, c.AttachObserver(rec))
		rec.Reset()
		engine.SetLoadError(errors.New("no route to host"))

		err := c.PlayTrack(context.Background(), Track{StreamURL: "stream://x"}, true)

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrPlaybackUnavailable)
		assert.ErrorIs(t, err, player.ErrMediaLoad)
		assert.Equal(t, PhaseStopped, c.Phase())
		assert.False(t, c.PollerActive())
		assert.Nil(t, c.Snapshot().Track)
		assert.Equal(t, []string{"phase:Stopped"}, rec.Events())

		time.Sleep(3 * TickInterval)
		synctest.Wait()
		assert.Equal(t, []string{"phase:Stopped"}, rec.Events())

		require.NoError(t, c.Close())
	})
}

func TestCoordinator_LoadErrorReleasesPrevious(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c, engine := newTestCoordinator(t)
		require.NoError(t, c.PlayTrack(context.Background(), trackA, false))
		engine.SetLoadError(errors.New("403 forbidden"))

		err := c.PlayTrack(context.Background(), trackB, false)
		assert.ErrorIs(t, err, ErrPlaybackUnavailable)
		assert.Equal(t, 1, engine.Releases())
		assert.Empty(t, engine.Loaded())
		assertInvariant(t, c)

		require.NoError(t, c.Close())
	})
}

func TestCoordinator_EngineLostSessionDuringPause(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c, engine := newTestCoordinator(t)
		require.NoError(t, c.PlayTrack(context.Background(), trackA, false))

		// The engine dropped the session without a completion callback.
		engine.Stop()

		require.NoError(t, c.PauseTrack())
		assert.Equal(t, PhaseStopped, c.Phase())
		assertInvariant(t, c)

		require.NoError(t, c.Close())
	})
}

func TestCoordinator_Seek(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c, engine := newTestCoordinator(t)
		rec := &recorder{}
		require.NoError(t, c.AttachObserver(rec))

		require.NoError(t, c.Seek(5*time.Second))
		assert.Empty(t, engine.SeekCalls(), "seek without a session is a no-op")

		require.NoError(t, c.PlayTrack(context.Background(), trackA, false))
		rec.Reset()

		require.NoError(t, c.Seek(30*time.Second))
		assert.Equal(t, []time.Duration{30 * time.Second}, engine.SeekCalls())
		assert.Equal(t, 30*time.Second, c.Snapshot().Position)

		require.NoError(t, c.Seek(-time.Hour))
		assert.Equal(t, time.Duration(0), c.Snapshot().Position)

		require.NoError(t, c.PauseTrack())
		require.NoError(t, c.SeekTo(time.Minute))
		assert.Equal(t, time.Minute, c.Snapshot().Position)
		assert.Equal(t, PhasePaused, c.Phase())

		assert.Equal(t, []string{"tick:30s", "tick:0s", "phase:Paused", "tick:1m0s"}, rec.Events())

		require.NoError(t, c.Close())
	})
}

func TestCoordinator_SetLoopAppliesToEngine(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c, engine := newTestCoordinator(t)
		require.NoError(t, c.PlayTrack(context.Background(), trackA, false))

		require.NoError(t, c.SetLoop(true))
		assert.True(t, engine.Loop())
		assert.True(t, c.Snapshot().Loop)

		engine.SimulateFinished()
		assert.Equal(t, PhasePlaying, c.Phase())

		require.NoError(t, c.Close())
	})
}

func TestCoordinator_PanickingObserverIsDetached(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c, _ := newTestCoordinator(t)

		// The attach-time resync panics and detaches the observer.
		require.NoError(t, c.AttachObserver(panicky{}))

		require.NoError(t, c.PlayTrack(context.Background(), trackA, false))
		assert.Equal(t, PhasePlaying, c.Phase())

		rec := &recorder{}
		require.NoError(t, c.AttachObserver(rec))
		assert.Equal(t, []string{"phase:Playing", "tick:0s"}, rec.Events())

		require.NoError(t, c.Close())
	})
}

func TestCoordinator_Close(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c, engine := newTestCoordinator(t)
		rec := &recorder{}
		require.NoError(t, c.AttachObserver(rec))
		require.NoError(t, c.PlayTrack(context.Background(), trackA, true))
		rec.Reset()

		require.NoError(t, c.Close())
		require.NoError(t, c.Close())

		assert.Equal(t, []string{"phase:Stopped"}, rec.Events())
		assert.False(t, c.PollerActive())
		assert.Empty(t, engine.Loaded())
		assert.Equal(t, 1, engine.Releases())

		ctx := context.Background()
		assert.ErrorIs(t, c.PlayTrack(ctx, trackB, false), ErrClosed)
		assert.ErrorIs(t, c.PauseTrack(), ErrClosed)
		assert.ErrorIs(t, c.ResumeTrack(), ErrClosed)
		assert.ErrorIs(t, c.StopAndRelease(), ErrClosed)
		assert.ErrorIs(t, c.SetLoop(false), ErrClosed)
		assert.ErrorIs(t, c.Seek(time.Second), ErrClosed)
		assert.ErrorIs(t, c.AttachObserver(rec), ErrClosed)

		time.Sleep(3 * TickInterval)
		synctest.Wait()
		assert.Equal(t, []string{"phase:Stopped"}, rec.Events())
	})
}

func TestCoordinator_CloseCancelsLoadInProgress(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c, engine := newTestCoordinator(t)
		engine.SetLoadHook(func(ctx context.Context, _ string) error {
			<-ctx.Done()
			return ctx.Err()
		})

		result := c.PlayTrackAsync(context.Background(), trackA, false)
		synctest.Wait()
		require.NoError(t, c.Close())

		assert.ErrorIs(t, <-result, ErrSuperseded)
		assert.Empty(t, engine.Loaded())
	})
}
