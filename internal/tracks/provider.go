// Package tracks builds playback.Track values from stream locations.
package tracks

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/dhowden/tag"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/llehouerou/streamer/internal/playback"
)

// ErrNoLocation is returned when Resolve is given an empty location.
var ErrNoLocation = errors.New("no stream location")

// Prober reports the length of a local stream. player.Fetcher satisfies it.
type Prober interface {
	Probe(ctx context.Context, location string) (time.Duration, error)
}

// Override replaces resolved metadata with caller-supplied values. Empty
// fields are ignored.
type Override struct {
	Artist      string
	Title       string
	Album       string
	AlbumArtURL string
}

// Provider resolves locations into tracks. Local files are read for their
// embedded tags; remote streams are described from their URL only, so
// resolving never downloads audio.
type Provider struct {
	fs     afero.Fs
	prober Prober
	log    logrus.FieldLogger
}

// NewProvider creates a Provider. A nil fs means the OS filesystem; a nil
// prober leaves Track.Duration zero.
func NewProvider(fs afero.Fs, prober Prober, log logrus.FieldLogger) *Provider {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Provider{fs: fs, prober: prober, log: log.WithField("component", "tracks")}
}

// Resolve describes the stream at location.
func (p *Provider) Resolve(ctx context.Context, location string, override Override) (playback.Track, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return playback.Track{}, ErrNoLocation
	}

	u, err := url.Parse(location)
	if err != nil {
		return playback.Track{}, fmt.Errorf("parse location: %w", err)
	}

	var t playback.Track
	switch u.Scheme {
	case "http", "https":
		t = remoteTrack(u)
	case "file":
		t, err = p.localTrack(ctx, location, u.Path)
	case "":
		t, err = p.localTrack(ctx, location, location)
	default:
		return playback.Track{}, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if err != nil {
		return playback.Track{}, err
	}

	return apply(t, override), nil
}

func remoteTrack(u *url.URL) playback.Track {
	name := path.Base(u.Path)
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}
	if name == "/" || name == "." {
		name = ""
	}
	return playback.Track{
		SongID:    songID(u.String()),
		Title:     strings.TrimSuffix(name, path.Ext(name)),
		StreamURL: u.String(),
	}
}

func (p *Provider) localTrack(ctx context.Context, location, name string) (playback.Track, error) {
	f, err := p.fs.Open(name)
	if err != nil {
		return playback.Track{}, err
	}
	defer f.Close()

	base := filepath.Base(name)
	t := playback.Track{
		SongID:    songID(name),
		Title:     strings.TrimSuffix(base, filepath.Ext(base)),
		StreamURL: location,
	}

	m, err := readTags(f)
	if err != nil {
		// Untagged files still play; the file name stands in for the title.
		p.log.WithError(err).WithField("path", name).Debug("read tags")
	} else {
		t.Title = lo.CoalesceOrEmpty(strings.TrimSpace(m.Title()), t.Title)
		t.Artist = lo.CoalesceOrEmpty(strings.TrimSpace(m.Artist()), strings.TrimSpace(m.AlbumArtist()))
		t.Album = strings.TrimSpace(m.Album())

		if _, err := f.Seek(0, io.SeekStart); err == nil {
			if sum, err := tag.Sum(f); err == nil {
				t.SongID = sum
			}
		}
	}

	if p.prober != nil {
		d, err := p.prober.Probe(ctx, location)
		if err != nil {
			p.log.WithError(err).WithField("path", name).Debug("probe duration")
		} else {
			t.Duration = d
		}
	}

	return t, nil
}

// minTaggedSize is the size of an ID3v1 trailer. tag.ReadFrom seeks that far
// back from the end, which some afero backends do not bound-check.
const minTaggedSize = 128

var errTooShort = errors.New("file too short for tags")

func readTags(f afero.File) (tag.Metadata, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.Size() < minTaggedSize {
		return nil, errTooShort
	}
	return tag.ReadFrom(f)
}

func apply(t playback.Track, o Override) playback.Track {
	t.Artist = lo.CoalesceOrEmpty(o.Artist, t.Artist)
	t.Title = lo.CoalesceOrEmpty(o.Title, t.Title)
	t.Album = lo.CoalesceOrEmpty(o.Album, t.Album)
	t.AlbumArtURL = lo.CoalesceOrEmpty(o.AlbumArtURL, t.AlbumArtURL)
	return t
}

func songID(s string) string {
	sum := sha1.Sum([]byte(s)) //nolint:gosec // identifier, not a security boundary
	return hex.EncodeToString(sum[:8])
}
