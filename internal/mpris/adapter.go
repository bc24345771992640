package mpris

import (
	"context"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/quarckster/go-mpris-server/pkg/types"
	"github.com/sirupsen/logrus"

	"github.com/llehouerou/streamer/internal/host"
	"github.com/llehouerou/streamer/internal/playback"
)

// Controller is the playback surface exposed over MPRIS. Loop and volume
// changes go through it so they are saved as preferences.
type Controller interface {
	PlayAsync(ctx context.Context, track playback.Track) <-chan error
	PauseTrack() error
	ResumeTrack() error
	TogglePlayback() error
	StopAndRelease() error
	Seek(delta time.Duration) error
	SeekTo(position time.Duration) error
	SetLoop(enabled bool) error
	SetVolume(level float64)
	Snapshot() playback.Status
}

var _ Controller = (*host.Service)(nil)

// rootAdapter implements OrgMprisMediaPlayer2Adapter.
type rootAdapter struct{}

func (r *rootAdapter) Raise() error {
	return nil // Not supported
}

func (r *rootAdapter) Quit() error {
	return nil // Not supported - app manages its own lifecycle
}

func (r *rootAdapter) CanQuit() (bool, error) {
	return false, nil
}

func (r *rootAdapter) CanRaise() (bool, error) {
	return false, nil
}

func (r *rootAdapter) HasTrackList() (bool, error) {
	return false, nil
}

func (r *rootAdapter) Identity() (string, error) {
	return "Streamer", nil
}

//nolint:revive // Method name required by interface.
func (r *rootAdapter) SupportedUriSchemes() ([]string, error) {
	return []string{"http", "https", "file"}, nil
}

func (r *rootAdapter) SupportedMimeTypes() ([]string, error) {
	return []string{"audio/mpeg", "audio/flac", "audio/wav", "audio/ogg"}, nil
}

// playerAdapter implements OrgMprisMediaPlayer2PlayerAdapter and the loop
// status extension on top of a Controller.
type playerAdapter struct {
	ctrl Controller
	log  logrus.FieldLogger
}

func (p *playerAdapter) Next() error {
	return nil // Single-track session
}

func (p *playerAdapter) Previous() error {
	return nil // Single-track session
}

func (p *playerAdapter) Pause() error {
	return p.ctrl.PauseTrack()
}

func (p *playerAdapter) PlayPause() error {
	if p.ctrl.Snapshot().Phase.IsActive() {
		return p.ctrl.TogglePlayback()
	}
	return p.Play()
}

func (p *playerAdapter) Stop() error {
	return p.ctrl.StopAndRelease()
}

// Play resumes a paused track, or restarts the selected track after it
// stopped.
func (p *playerAdapter) Play() error {
	s := p.ctrl.Snapshot()
	switch s.Phase {
	case playback.PhasePaused:
		return p.ctrl.ResumeTrack()
	case playback.PhaseIdle, playback.PhaseStopped:
		if s.Track == nil {
			return nil
		}
		done := p.ctrl.PlayAsync(context.Background(), *s.Track)
		go func() {
			if err := <-done; err != nil {
				p.log.WithError(err).Warn("play from mpris")
			}
		}()
	case playback.PhasePlaying:
	}
	return nil
}

func (p *playerAdapter) Seek(offset types.Microseconds) error {
	return p.ctrl.Seek(time.Duration(offset) * time.Microsecond)
}

func (p *playerAdapter) SetPosition(trackID string, position types.Microseconds) error {
	s := p.ctrl.Snapshot()
	// Stale requests for a track that is no longer current are ignored.
	if s.Track == nil || trackID != formatTrackID(*s.Track) {
		return nil
	}
	return p.ctrl.SeekTo(time.Duration(position) * time.Microsecond)
}

//nolint:revive // Method name required by interface.
func (p *playerAdapter) OpenUri(uri string) error {
	done := p.ctrl.PlayAsync(context.Background(), playback.Track{StreamURL: uri})
	go func() {
		if err := <-done; err != nil {
			p.log.WithError(err).WithField("uri", uri).Warn("open uri from mpris")
		}
	}()
	return nil
}

func (p *playerAdapter) PlaybackStatus() (types.PlaybackStatus, error) {
	return playbackStatus(p.ctrl.Snapshot().Phase), nil
}

func playbackStatus(phase playback.Phase) types.PlaybackStatus {
	switch phase {
	case playback.PhasePlaying:
		return types.PlaybackStatusPlaying
	case playback.PhasePaused:
		return types.PlaybackStatusPaused
	case playback.PhaseIdle, playback.PhaseStopped:
	}
	return types.PlaybackStatusStopped
}

func (p *playerAdapter) Rate() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) SetRate(_ float64) error {
	return nil // Not supported
}

func (p *playerAdapter) Metadata() (types.Metadata, error) {
	s := p.ctrl.Snapshot()
	if s.Track == nil {
		return types.Metadata{}, nil
	}
	return metadata(*s.Track, s.Duration), nil
}

func metadata(track playback.Track, length time.Duration) types.Metadata {
	meta := types.Metadata{
		TrackId: dbus.ObjectPath(formatTrackID(track)),
		Length:  types.Microseconds(length.Microseconds()),
		Title:   track.DisplayTitle(),
		Album:   track.Album,
		ArtUrl:  track.AlbumArtURL,
	}
	if track.Artist != "" {
		meta.Artist = []string{track.Artist}
	}
	return meta
}

func (p *playerAdapter) Volume() (float64, error) {
	return p.ctrl.Snapshot().Volume, nil
}

func (p *playerAdapter) SetVolume(level float64) error {
	p.ctrl.SetVolume(level)
	return nil
}

func (p *playerAdapter) Position() (int64, error) {
	return p.ctrl.Snapshot().Position.Microseconds(), nil
}

func (p *playerAdapter) MinimumRate() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) MaximumRate() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) CanGoNext() (bool, error) {
	return false, nil
}

func (p *playerAdapter) CanGoPrevious() (bool, error) {
	return false, nil
}

func (p *playerAdapter) CanPlay() (bool, error) {
	return p.ctrl.Snapshot().Track != nil, nil
}

func (p *playerAdapter) CanPause() (bool, error) {
	return p.ctrl.Snapshot().Phase == playback.PhasePlaying, nil
}

func (p *playerAdapter) CanSeek() (bool, error) {
	return p.ctrl.Snapshot().Phase.IsActive(), nil
}

func (p *playerAdapter) CanControl() (bool, error) {
	return true, nil
}

// LoopStatus implements OrgMprisMediaPlayer2PlayerAdapterLoopStatus.
func (p *playerAdapter) LoopStatus() (types.LoopStatus, error) {
	if p.ctrl.Snapshot().Loop {
		return types.LoopStatusTrack, nil
	}
	return types.LoopStatusNone, nil
}

// SetLoopStatus implements OrgMprisMediaPlayer2PlayerAdapterLoopStatus.
// Playlist looping maps to track looping since a session holds one track.
func (p *playerAdapter) SetLoopStatus(status types.LoopStatus) error {
	return p.ctrl.SetLoop(status != types.LoopStatusNone)
}

func formatTrackID(track playback.Track) string {
	key := track.SongID
	if key == "" {
		key = track.StreamURL
	}
	h := fnv.New64a()
	h.Write([]byte(key))
	return fmt.Sprintf("/org/mpris/MediaPlayer2/Track/%x", h.Sum64())
}
