package player

import (
	"sync/atomic"

	"github.com/gopxl/beep/v2"
)

var _ beep.Streamer = (*loopStreamer)(nil)

// loopStreamer wraps a seekable stream and rewinds it to the start when it is
// exhausted, as long as looping is enabled. The flag is read on every pass so
// it can be flipped while the stream is playing.
type loopStreamer struct {
	src      beep.StreamSeekCloser
	loop     *atomic.Bool
	onRewind func() // called from the audio goroutine, must not block
	err      error
}

// Stream implements beep.Streamer.
func (l *loopStreamer) Stream(samples [][2]float64) (n int, ok bool) {
	rewound := false
	for n < len(samples) {
		sn, sok := l.src.Stream(samples[n:])
		n += sn
		if sok && sn > 0 {
			rewound = false
			continue
		}

		// Source exhausted. A source that yields nothing right after a
		// rewind would spin forever, so give up on it.
		if !l.loop.Load() || rewound {
			return n, n > 0
		}
		if err := l.src.Seek(0); err != nil {
			l.err = err
			return n, n > 0
		}
		rewound = true
		if l.onRewind != nil {
			l.onRewind()
		}
	}
	return n, true
}

// Err implements beep.Streamer.
func (l *loopStreamer) Err() error {
	if l.err != nil {
		return l.err
	}
	return l.src.Err()
}
