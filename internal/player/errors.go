package player

import "errors"

var (
	// ErrMediaLoad is returned when a stream cannot be opened or decoded.
	ErrMediaLoad = errors.New("media load failed")
	// ErrNotLoaded is returned by commands issued with no loaded session.
	ErrNotLoaded = errors.New("no track loaded")
	// ErrUnsupportedFormat is returned when no decoder matches the stream.
	ErrUnsupportedFormat = errors.New("unsupported format")
)
