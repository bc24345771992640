package mpris

import (
	"context"
	"io"
	"testing"
	"testing/synctest"
	"time"

	"github.com/quarckster/go-mpris-server/pkg/types"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/streamer/internal/host"
	"github.com/llehouerou/streamer/internal/playback"
	"github.com/llehouerou/streamer/internal/player"
	"github.com/llehouerou/streamer/internal/state"
)

var testTrack = playback.Track{
	Artist:      "Massive Attack",
	SongID:      "teardrop",
	Title:       "Teardrop",
	Album:       "Mezzanine",
	AlbumArtURL: "https://img.example/mezzanine.jpg",
	StreamURL:   "https://cdn.example/teardrop.mp3",
}

func newAdapterWithPrefs(t *testing.T, prefs *state.Mock) (*playerAdapter, *host.Service, *player.Mock) {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	engine := player.NewMock()
	h := host.New(engine, prefs, host.Options{DefaultLoop: true, DefaultVolume: 1}, log)
	return &playerAdapter{ctrl: h, log: log}, h, engine
}

func newAdapter(t *testing.T) (*playerAdapter, *playback.Coordinator, *player.Mock) {
	t.Helper()
	p, h, engine := newAdapterWithPrefs(t, state.NewMock())
	return p, h.Coordinator(), engine
}

func TestPlaybackStatus(t *testing.T) {
	tests := []struct {
		phase    playback.Phase
		expected types.PlaybackStatus
	}{
		{playback.PhaseIdle, types.PlaybackStatusStopped},
		{playback.PhasePlaying, types.PlaybackStatusPlaying},
		{playback.PhasePaused, types.PlaybackStatusPaused},
		{playback.PhaseStopped, types.PlaybackStatusStopped},
	}
	for _, tt := range tests {
		t.Run(tt.phase.String(), func(t *testing.T) {
			assert.Equal(t, tt.expected, playbackStatus(tt.phase))
		})
	}
}

func TestMetadata(t *testing.T) {
	meta := metadata(testTrack, 5*time.Minute)

	assert.Equal(t, "Teardrop", meta.Title)
	assert.Equal(t, []string{"Massive Attack"}, meta.Artist)
	assert.Equal(t, "Mezzanine", meta.Album)
	assert.Equal(t, "https://img.example/mezzanine.jpg", meta.ArtUrl)
	assert.Equal(t, types.Microseconds(300_000_000), meta.Length)
	assert.Equal(t, formatTrackID(testTrack), string(meta.TrackId))
}

func TestFormatTrackID(t *testing.T) {
	id := formatTrackID(testTrack)
	assert.Contains(t, id, "/org/mpris/MediaPlayer2/Track/")
	assert.Equal(t, id, formatTrackID(testTrack), "stable")

	other := testTrack
	other.SongID = "angel"
	assert.NotEqual(t, id, formatTrackID(other))

	byURL := playback.Track{StreamURL: "https://cdn.example/x.mp3"}
	assert.NotEqual(t, formatTrackID(byURL), formatTrackID(playback.Track{StreamURL: "https://cdn.example/y.mp3"}))
}

func TestPlayerAdapter_Controls(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		p, c, engine := newAdapter(t)
		defer c.Close()

		canPlay, _ := p.CanPlay()
		assert.False(t, canPlay)
		require.NoError(t, p.Play(), "play without a track is a no-op")

		require.NoError(t, c.PlayTrack(context.Background(), testTrack, false))

		status, _ := p.PlaybackStatus()
		assert.Equal(t, types.PlaybackStatusPlaying, status)

		require.NoError(t, p.PlayPause())
		status, _ = p.PlaybackStatus()
		assert.Equal(t, types.PlaybackStatusPaused, status)

		require.NoError(t, p.Play())
		status, _ = p.PlaybackStatus()
		assert.Equal(t, types.PlaybackStatusPlaying, status)

		require.NoError(t, p.Seek(types.Microseconds(20_000_000)))
		pos, _ := p.Position()
		assert.Equal(t, int64(20_000_000), pos)

		require.NoError(t, p.SetPosition(formatTrackID(testTrack), types.Microseconds(60_000_000)))
		pos, _ = p.Position()
		assert.Equal(t, int64(60_000_000), pos)

		require.NoError(t, p.SetPosition("/org/mpris/MediaPlayer2/Track/stale", 0))
		pos, _ = p.Position()
		assert.Equal(t, int64(60_000_000), pos, "stale track id ignored")

		require.NoError(t, p.Stop())
		status, _ = p.PlaybackStatus()
		assert.Equal(t, types.PlaybackStatusStopped, status)
		assert.Empty(t, engine.Loaded())
	})
}

func TestPlayerAdapter_PlayRestartsFinishedTrack(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		p, c, engine := newAdapter(t)
		defer c.Close()

		require.NoError(t, c.PlayTrack(context.Background(), testTrack, false))
		engine.SimulateFinished()
		require.Equal(t, playback.PhaseStopped, c.Phase())

		require.NoError(t, p.Play())
		synctest.Wait()

		assert.Equal(t, playback.PhasePlaying, c.Phase())
		assert.Len(t, engine.LoadCalls(), 2)
	})
}

func TestPlayerAdapter_OpenUri(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		p, c, engine := newAdapter(t)
		defer c.Close()

		require.NoError(t, p.OpenUri("https://cdn.example/other.flac"))
		synctest.Wait()

		assert.Equal(t, "https://cdn.example/other.flac", engine.Loaded())
		meta, _ := p.Metadata()
		assert.Equal(t, "https://cdn.example/other.flac", meta.Title)
	})
}

func TestPlayerAdapter_LoopStatus(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		p, c, engine := newAdapter(t)
		defer c.Close()

		require.NoError(t, c.PlayTrack(context.Background(), testTrack, false))
		loop, _ := p.LoopStatus()
		assert.Equal(t, types.LoopStatusNone, loop)

		require.NoError(t, p.SetLoopStatus(types.LoopStatusPlaylist))
		loop, _ = p.LoopStatus()
		assert.Equal(t, types.LoopStatusTrack, loop)
		assert.True(t, engine.Loop())

		require.NoError(t, p.SetLoopStatus(types.LoopStatusNone))
		assert.False(t, engine.Loop())
	})
}

func TestPlayerAdapter_Volume(t *testing.T) {
	prefs := state.NewMock()
	p, h, engine := newAdapterWithPrefs(t, prefs)
	defer h.Close()

	require.NoError(t, p.SetVolume(0.3))
	v, _ := p.Volume()
	assert.InDelta(t, 0.3, v, 1e-9)
	assert.InDelta(t, 0.3, engine.Volume(), 1e-9)

	level, muted := h.Volume()
	assert.InDelta(t, 0.3, level, 1e-9)
	assert.False(t, muted)

	saved, err := prefs.GetPreferences()
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.InDelta(t, 0.3, saved.Volume, 1e-9)

	h.AdjustVolume(0.05)
	level, _ = h.Volume()
	assert.InDelta(t, 0.35, level, 1e-9, "keys adjust from the level set over mpris")
}

func TestPlayerAdapter_LoopStatusIsSavedAndUsedOnRestart(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		prefs := state.NewMock()
		p, h, engine := newAdapterWithPrefs(t, prefs)
		defer h.Close()

		require.NoError(t, h.Play(context.Background(), testTrack))
		require.NoError(t, p.SetLoopStatus(types.LoopStatusNone))

		assert.False(t, h.Loop())
		saved, err := prefs.GetPreferences()
		require.NoError(t, err)
		require.NotNil(t, saved)
		assert.False(t, saved.Loop)

		require.NoError(t, h.Play(context.Background(), testTrack))
		assert.False(t, h.Snapshot().Loop)
		assert.False(t, engine.Loop())

		require.NoError(t, p.SetLoopStatus(types.LoopStatusTrack))
		require.NoError(t, p.OpenUri("https://cdn.example/other.flac"))
		synctest.Wait()
		assert.True(t, h.Snapshot().Loop, "opened uri uses the loop preference")
	})
}

func TestPlayerAdapter_EmptyMetadata(t *testing.T) {
	p, c, _ := newAdapter(t)
	defer c.Close()

	meta, err := p.Metadata()
	require.NoError(t, err)
	assert.Equal(t, types.Metadata{}, meta)
}
