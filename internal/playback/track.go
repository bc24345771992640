package playback

import "time"

// Track describes one playable item. It is a value: the coordinator keeps
// its own copy and never mutates it.
type Track struct {
	Artist      string
	SongID      string
	Title       string
	Album       string
	AlbumArtURL string
	StreamURL   string
	Duration    time.Duration // hint from the metadata provider, may be zero
}

// DisplayTitle returns the title, falling back to the stream URL.
func (t Track) DisplayTitle() string {
	if t.Title != "" {
		return t.Title
	}
	return t.StreamURL
}

// Subtitle returns "artist - album" with empty parts omitted.
func (t Track) Subtitle() string {
	switch {
	case t.Artist != "" && t.Album != "":
		return t.Artist + " - " + t.Album
	case t.Artist != "":
		return t.Artist
	default:
		return t.Album
	}
}
