package playback

import (
	"sync"
	"sync/atomic"
	"time"
)

const eventBufferSize = 16

// Event is a notification delivered through a Subscription.
type Event interface {
	isEvent()
}

// PhaseChange is emitted when the playback phase changes.
type PhaseChange struct {
	Phase Phase
}

// PositionChange is emitted on every poller tick and after seeks.
type PositionChange struct {
	Position time.Duration
}

// Resync is emitted once when the subscription is attached.
type Resync struct {
	Status Status
}

func (PhaseChange) isEvent()    {}
func (PositionChange) isEvent() {}
func (Resync) isEvent()         {}

// Subscription is an Observer that forwards notifications onto one buffered
// channel. Sends never block: when the reader falls behind, events are
// dropped and counted. A single channel keeps notifications in the order the
// coordinator produced them.
type Subscription struct {
	Events <-chan Event
	Done   <-chan struct{}

	eventCh   chan Event
	doneCh    chan struct{}
	closeOnce sync.Once
	dropped   atomic.Uint64
}

var (
	_ Observer = (*Subscription)(nil)
	_ Resyncer = (*Subscription)(nil)
)

// NewSubscription creates a subscription with a buffered event channel.
func NewSubscription() *Subscription {
	s := &Subscription{
		eventCh: make(chan Event, eventBufferSize),
		doneCh:  make(chan struct{}),
	}
	s.Events = s.eventCh
	s.Done = s.doneCh
	return s
}

// Close signals readers to stop by closing Done. Safe to call repeatedly.
func (s *Subscription) Close() {
	s.closeOnce.Do(func() { close(s.doneCh) })
}

// Dropped returns how many events were discarded because the buffer was full.
func (s *Subscription) Dropped() uint64 {
	return s.dropped.Load()
}

func (s *Subscription) OnPlaybackPhaseChanged(phase Phase) {
	s.send(PhaseChange{Phase: phase})
}

func (s *Subscription) OnPositionTick(position time.Duration) {
	s.send(PositionChange{Position: position})
}

func (s *Subscription) OnResync(status Status) {
	s.send(Resync{Status: status})
}

// send delivers e without blocking.
func (s *Subscription) send(e Event) {
	select {
	case <-s.doneCh:
		return
	default:
	}
	select {
	case s.eventCh <- e:
	default:
		s.dropped.Add(1)
	}
}
