package player

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// Format identifies the container/codec of a stream.
type Format string

const (
	FormatMP3  Format = "MP3"
	FormatFLAC Format = "FLAC"
	FormatWAV  Format = "WAV"
	FormatOGG  Format = "OGG"
)

const (
	DefaultFetchTimeout = 15 * time.Second
	DefaultMaxBytes     = 64 << 20
	sniffLen            = 12
)

// FetcherConfig configures how stream sources are opened.
type FetcherConfig struct {
	Timeout   time.Duration // whole-request timeout for remote streams
	MaxBytes  int64         // upper bound on a buffered remote stream
	UserAgent string
}

// Fetcher opens stream locations. Remote streams (http, https) are buffered
// fully in memory so they can be rewound for looping and seeking. Local
// locations (file:// URLs and bare paths) are opened through fs.
type Fetcher struct {
	client    *http.Client
	fs        afero.Fs
	maxBytes  int64
	userAgent string
	log       logrus.FieldLogger
}

// NewFetcher creates a Fetcher. A nil fs means the OS filesystem.
func NewFetcher(cfg FetcherConfig, fs afero.Fs, log logrus.FieldLogger) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultFetchTimeout
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultMaxBytes
	}
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Fetcher{
		client: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 10 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: cfg.Timeout,
				MaxIdleConns:          4,
				IdleConnTimeout:       90 * time.Second,
			},
		},
		fs:        fs,
		maxBytes:  cfg.MaxBytes,
		userAgent: cfg.UserAgent,
		log:       log.WithField("component", "fetcher"),
	}
}

// Source is an opened, seekable stream body.
type Source struct {
	Location    string
	ContentType string
	Size        int64
	body        io.ReadSeekCloser
}

func (s *Source) Read(p []byte) (int, error)                { return s.body.Read(p) }
func (s *Source) Seek(off int64, whence int) (int64, error) { return s.body.Seek(off, whence) }
func (s *Source) Close() error                              { return s.body.Close() }

// Open resolves location to a seekable Source.
func (f *Fetcher) Open(ctx context.Context, location string) (*Source, error) {
	if location == "" {
		return nil, fmt.Errorf("empty stream location")
	}
	u, err := url.Parse(location)
	if err != nil {
		return nil, fmt.Errorf("parse location: %w", err)
	}
	switch u.Scheme {
	case "http", "https":
		return f.openRemote(ctx, location)
	case "file":
		return f.openLocal(u.Path)
	case "":
		return f.openLocal(location)
	default:
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
}

func (f *Fetcher) openRemote(ctx context.Context, location string) (*Source, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, err
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	if resp.ContentLength > f.maxBytes {
		return nil, fmt.Errorf("stream too large: %s", humanize.IBytes(uint64(resp.ContentLength)))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read stream: %w", err)
	}
	if int64(len(data)) > f.maxBytes {
		return nil, fmt.Errorf("stream exceeds %s", humanize.IBytes(uint64(f.maxBytes)))
	}

	f.log.WithFields(logrus.Fields{
		"location": location,
		"size":     humanize.IBytes(uint64(len(data))),
	}).Debug("stream buffered")

	return &Source{
		Location:    location,
		ContentType: resp.Header.Get("Content-Type"),
		Size:        int64(len(data)),
		body:        nopCloser{bytes.NewReader(data)},
	}, nil
}

func (f *Fetcher) openLocal(name string) (*Source, error) {
	file, err := f.fs.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	if info.IsDir() {
		file.Close()
		return nil, fmt.Errorf("%s is a directory", name)
	}
	return &Source{
		Location: name,
		Size:     info.Size(),
		body:     file,
	}, nil
}

type nopCloser struct {
	io.ReadSeeker
}

func (nopCloser) Close() error { return nil }

// DetectFormat picks a decoder from the content type, then the location's
// extension, then the leading bytes of the stream.
func DetectFormat(contentType, location string, head []byte) (Format, error) {
	if contentType != "" {
		if mt, _, err := mime.ParseMediaType(contentType); err == nil {
			switch mt {
			case "audio/mpeg", "audio/mp3", "audio/mpeg3":
				return FormatMP3, nil
			case "audio/flac", "audio/x-flac":
				return FormatFLAC, nil
			case "audio/wav", "audio/x-wav", "audio/wave", "audio/vnd.wave":
				return FormatWAV, nil
			case "audio/ogg", "application/ogg", "audio/vorbis":
				return FormatOGG, nil
			}
		}
	}

	if u, err := url.Parse(location); err == nil {
		switch strings.ToLower(path.Ext(u.Path)) {
		case ".mp3":
			return FormatMP3, nil
		case ".flac":
			return FormatFLAC, nil
		case ".wav":
			return FormatWAV, nil
		case ".ogg", ".oga":
			return FormatOGG, nil
		}
	}

	switch {
	case bytes.HasPrefix(head, []byte("fLaC")):
		return FormatFLAC, nil
	case bytes.HasPrefix(head, []byte("OggS")):
		return FormatOGG, nil
	case len(head) >= 12 && bytes.Equal(head[0:4], []byte("RIFF")) && bytes.Equal(head[8:12], []byte("WAVE")):
		return FormatWAV, nil
	case bytes.HasPrefix(head, []byte("ID3")):
		// ID3v2 is mostly MP3, though some taggers prepend it to FLAC.
		return FormatMP3, nil
	case len(head) >= 2 && head[0] == 0xFF && head[1]&0xE0 == 0xE0:
		return FormatMP3, nil
	}

	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, location)
}

// Probe opens and decodes location and returns its length without playing
// it.
func (f *Fetcher) Probe(ctx context.Context, location string) (time.Duration, error) {
	src, err := f.Open(ctx, location)
	if err != nil {
		return 0, err
	}
	stream, format, _, err := decode(src)
	if err != nil {
		return 0, err
	}
	defer stream.Close()
	return format.SampleRate.D(stream.Len()), nil
}

// decode detects the format of src and returns a seekable decoded stream.
// On error src is closed.
func decode(src *Source) (beep.StreamSeekCloser, beep.Format, Format, error) {
	head := make([]byte, sniffLen)
	n, _ := io.ReadFull(src, head)
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		src.Close()
		return nil, beep.Format{}, "", err
	}

	kind, err := DetectFormat(src.ContentType, src.Location, head[:n])
	if err != nil {
		src.Close()
		return nil, beep.Format{}, "", err
	}

	var (
		stream beep.StreamSeekCloser
		format beep.Format
	)
	switch kind {
	case FormatMP3:
		stream, format, err = mp3.Decode(src)
	case FormatFLAC:
		if err = skipID3v2(src); err == nil {
			stream, format, err = flac.Decode(src)
		}
	case FormatWAV:
		stream, format, err = wav.Decode(src)
	case FormatOGG:
		stream, format, err = vorbis.Decode(src)
	}
	if err != nil {
		src.Close()
		return nil, beep.Format{}, "", fmt.Errorf("decode %s: %w", kind, err)
	}
	return stream, format, kind, nil
}

// skipID3v2 positions r after an ID3v2 tag if one is present, since the
// FLAC decoder does not understand it.
func skipID3v2(r io.ReadSeeker) error {
	header := make([]byte, 10)
	n, err := io.ReadFull(r, header)
	if err != nil && n < len(header) {
		_, err = r.Seek(0, io.SeekStart)
		return err
	}
	if string(header[0:3]) != "ID3" {
		_, err = r.Seek(0, io.SeekStart)
		return err
	}

	// Syncsafe integer: 7 bits per byte.
	size := int64(header[6])<<21 | int64(header[7])<<14 | int64(header[8])<<7 | int64(header[9])
	_, err = r.Seek(10+size, io.SeekStart)
	return err
}
