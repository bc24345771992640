package playback

import (
	"sync"
	"time"
)

// TickInterval is the fixed progress polling cadence.
const TickInterval = time.Second

// Poller invokes a callback at a fixed interval while active.
//
// Every Start and Stop advances a generation counter. A tick that was already
// in flight when Stop returned still carries the old generation, so callbacks
// check IsCurrent (under their own lock) before acting on it.
type Poller struct {
	interval time.Duration

	mu     sync.Mutex
	active bool
	gen    uint64
	stop   chan struct{}
}

// NewPoller creates an inactive poller.
func NewPoller(interval time.Duration) *Poller {
	if interval <= 0 {
		interval = TickInterval
	}
	return &Poller{interval: interval}
}

// Start begins ticking and returns the new generation. Starting an active
// poller replaces its callback and restarts the interval from now.
func (p *Poller) Start(onTick func(gen uint64)) uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopLocked()
	p.gen++
	p.active = true
	p.stop = make(chan struct{})
	go p.run(p.gen, onTick, p.stop)
	return p.gen
}

// Stop cancels future ticks. It never waits for a tick in progress.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

func (p *Poller) stopLocked() {
	if !p.active {
		return
	}
	p.active = false
	p.gen++
	close(p.stop)
	p.stop = nil
}

// Active reports whether the poller is ticking.
func (p *Poller) Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

// IsCurrent reports whether gen is the generation of the running poller.
func (p *Poller) IsCurrent(gen uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active && p.gen == gen
}

func (p *Poller) run(gen uint64, onTick func(uint64), stop <-chan struct{}) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if !p.IsCurrent(gen) {
				return
			}
			onTick(gen)
		}
	}
}
