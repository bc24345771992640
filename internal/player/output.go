package player

import (
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
)

// output is the sink sessions are played through. Lock and Unlock guard
// streamer state that the audio goroutine reads.
type output interface {
	Init() error
	Play(s beep.Streamer)
	Clear()
	Lock()
	Unlock()
}

// speakerOutput plays through the process-wide beep speaker.
type speakerOutput struct{}

func (speakerOutput) Init() error          { return initSpeaker() }
func (speakerOutput) Play(s beep.Streamer) { speaker.Play(s) }
func (speakerOutput) Clear()               { speaker.Clear() }
func (speakerOutput) Lock()                { speaker.Lock() }
func (speakerOutput) Unlock()              { speaker.Unlock() }
