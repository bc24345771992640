// Package app is the terminal front end. It binds to the host as a
// playback observer and renders the session; quitting or detaching it does
// not affect the session itself.
package app

import (
	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/llehouerou/streamer/internal/host"
	"github.com/llehouerou/streamer/internal/keymap"
	"github.com/llehouerou/streamer/internal/playback"
)

const (
	seekStep   = 5 // seconds
	volumeStep = 0.05
)

// Model is the root application model.
type Model struct {
	Host  *host.Service
	Track playback.Track // replayed by restart and by play after a stop

	Keys     *keymap.Resolver
	Help     help.Model
	HelpKeys keymap.Help

	Status   playback.Status
	Loading  bool
	ErrorMsg string
	Width    int
	Height   int

	sub      *playback.Subscription // nil while detached
	autoplay bool
	log      logrus.FieldLogger
}

// New binds a fresh subscription to h. When autoplay is set, Init starts
// track.
func New(h *host.Service, track playback.Track, autoplay bool, log logrus.FieldLogger) (Model, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	m := Model{
		Host:     h,
		Track:    track,
		Keys:     keymap.NewResolver(keymap.Bindings),
		Help:     help.New(),
		HelpKeys: keymap.NewHelp(),
		Status:   h.Coordinator().Snapshot(),
		Loading:  autoplay,
		autoplay: autoplay,
		log:      log.WithField("component", "app"),
	}
	if err := m.attach(); err != nil {
		return Model{}, err
	}
	return m, nil
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{WatchEvents(m.sub)}
	if m.autoplay {
		cmds = append(cmds, PlayCmd(m.Host, m.Track))
	}
	return tea.Batch(cmds...)
}

// Attached reports whether the model is bound to the host.
func (m Model) Attached() bool {
	return m.sub != nil
}

// Close detaches the model. Call it after the program exits.
func (m *Model) Close() {
	m.detach()
}

func (m *Model) attach() error {
	sub := playback.NewSubscription()
	if err := m.Host.Bind(sub); err != nil {
		return err
	}
	m.sub = sub
	return nil
}

func (m *Model) detach() {
	if m.sub == nil {
		return
	}
	m.Host.Unbind()
	m.sub.Close()
	if n := m.sub.Dropped(); n > 0 {
		m.log.WithField("dropped", n).Debug("subscription dropped events")
	}
	m.sub = nil
}
