package app

import (
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/llehouerou/streamer/internal/errmsg"
	"github.com/llehouerou/streamer/internal/playback"
)

// Update handles messages and returns updated model and commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Help.Width = msg.Width
		return m, nil

	case EventMsg:
		if msg.Sub != m.sub {
			return m, nil // read after detach
		}
		m.applyEvent(msg.Event)
		return m, WatchEvents(m.sub)

	case SubscriptionClosedMsg:
		return m, nil

	case PlayResultMsg:
		return m.handlePlayResult(msg)

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	return m, nil
}

func (m *Model) applyEvent(e playback.Event) {
	switch e := e.(type) {
	case playback.Resync:
		m.Status = e.Status
	case playback.PhaseChange:
		// The event carries the phase only; track, loop and duration are
		// read back from the coordinator.
		status := m.Host.Coordinator().Snapshot()
		status.Phase = e.Phase
		status.Position = m.Status.Position
		if !e.Phase.IsActive() {
			status.Position = 0
		}
		m.Status = status
	case playback.PositionChange:
		m.Status.Position = e.Position
	}
}

func (m Model) handlePlayResult(msg PlayResultMsg) (tea.Model, tea.Cmd) {
	m.Loading = false
	switch {
	case msg.Err == nil:
		m.ErrorMsg = ""
	case errors.Is(msg.Err, playback.ErrSuperseded), errors.Is(msg.Err, playback.ErrClosed):
		// A later command took over; nothing to report.
	default:
		m.ErrorMsg = errmsg.FormatWith(errmsg.OpPlaybackStart, m.Track.DisplayTitle(), msg.Err)
		m.log.WithError(msg.Err).Warn("play track")
	}
	return m, nil
}
