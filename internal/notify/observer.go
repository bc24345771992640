package notify

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/llehouerou/streamer/internal/playback"
)

const (
	notifyTimeout = 4000 // ms
	queueSize     = 8
)

// StatusSource provides the session state shown in a notification.
type StatusSource interface {
	Snapshot() playback.Status
}

// Observer wraps a playback observer and posts a desktop notification when
// playback starts, pauses or stops. Notifications are sent from a worker
// goroutine, so the wrapped observer is called without added latency.
type Observer struct {
	inner    playback.Observer
	notifier Notifier
	status   StatusSource
	log      logrus.FieldLogger

	phases    chan playback.Phase
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

var (
	_ playback.Observer = (*Observer)(nil)
	_ playback.Resyncer = (*Observer)(nil)
)

// Wrap returns an Observer forwarding to inner (which may be nil) and
// notifying through n. Call Close to stop the worker.
func Wrap(inner playback.Observer, n Notifier, status StatusSource, log logrus.FieldLogger) *Observer {
	if log == nil {
		log = logrus.StandardLogger()
	}
	o := &Observer{
		inner:    inner,
		notifier: n,
		status:   status,
		log:      log.WithField("component", "notify"),
		phases:   make(chan playback.Phase, queueSize),
		done:     make(chan struct{}),
	}
	o.wg.Add(1)
	go o.run()
	return o
}

func (o *Observer) OnPlaybackPhaseChanged(phase playback.Phase) {
	if o.inner != nil {
		o.inner.OnPlaybackPhaseChanged(phase)
	}
	select {
	case <-o.done:
		return
	default:
	}
	select {
	case o.phases <- phase:
	default:
		o.log.WithField("phase", phase).Debug("notification queue full")
	}
}

func (o *Observer) OnPositionTick(position time.Duration) {
	if o.inner != nil {
		o.inner.OnPositionTick(position)
	}
}

// OnResync forwards the attach-time state. It does not post a notification.
func (o *Observer) OnResync(status playback.Status) {
	switch inner := o.inner.(type) {
	case nil:
	case playback.Resyncer:
		inner.OnResync(status)
	default:
		inner.OnPlaybackPhaseChanged(status.Phase)
		inner.OnPositionTick(status.Position)
	}
}

// Close stops the worker and waits for it to exit. Queued notifications are
// discarded.
func (o *Observer) Close() {
	o.closeOnce.Do(func() { close(o.done) })
	o.wg.Wait()
}

func (o *Observer) run() {
	defer o.wg.Done()

	var lastID uint32
	for {
		select {
		case <-o.done:
			return
		case phase := <-o.phases:
			n, ok := o.notification(phase)
			if !ok {
				continue
			}
			n.ReplacesID = lastID
			id, err := o.notifier.Notify(n)
			if err != nil {
				o.log.WithError(err).Debug("send notification")
				continue
			}
			lastID = id
		}
	}
}

func (o *Observer) notification(phase playback.Phase) (Notification, bool) {
	n := Notification{Timeout: notifyTimeout, Urgency: UrgencyLow}

	var track *playback.Track
	if o.status != nil {
		track = o.status.Snapshot().Track
	}

	switch phase {
	case playback.PhasePlaying:
		if track == nil {
			return n, false
		}
		n.Title = track.DisplayTitle()
		n.Body = track.Subtitle()
		n.Icon = "media-playback-start"
	case playback.PhasePaused:
		n.Title = "Paused"
		if track != nil {
			n.Body = track.DisplayTitle()
		}
		n.Icon = "media-playback-pause"
	case playback.PhaseStopped:
		n.Title = "Stopped"
		n.Icon = "media-playback-stop"
	case playback.PhaseIdle:
		return n, false
	}
	return n, true
}
