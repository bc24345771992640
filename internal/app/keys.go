package app

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/llehouerou/streamer/internal/app/handler"
	"github.com/llehouerou/streamer/internal/errmsg"
	"github.com/llehouerou/streamer/internal/keymap"
)

func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Only global bindings are live while detached.
	var contexts []string
	if !m.Attached() {
		contexts = []string{keymap.ContextGlobal}
	}

	r := handler.Chain(m.Keys.ResolveKey(msg, contexts...),
		m.handleGlobalAction,
		m.handlePlaybackAction,
		m.handleVolumeAction,
	)
	return m, r.Cmd
}

func (m *Model) handleGlobalAction(action keymap.Action) handler.Result {
	switch action { //nolint:exhaustive // other actions handled elsewhere
	case keymap.ActionQuit:
		return handler.Handled(tea.Quit)
	case keymap.ActionHelp:
		m.Help.ShowAll = !m.Help.ShowAll
		return handler.HandledNoCmd
	case keymap.ActionDetach:
		return m.toggleAttached()
	}
	return handler.NotHandled
}

func (m *Model) toggleAttached() handler.Result {
	if m.Attached() {
		m.detach()
		return handler.HandledNoCmd
	}
	if err := m.attach(); err != nil {
		m.ErrorMsg = errmsg.Format(errmsg.OpObserverAttach, err)
		return handler.HandledNoCmd
	}
	m.ErrorMsg = ""
	return handler.Handled(WatchEvents(m.sub))
}

func (m *Model) handlePlaybackAction(action keymap.Action) handler.Result {
	coord := m.Host.Coordinator()

	switch action { //nolint:exhaustive // other actions handled elsewhere
	case keymap.ActionPlayPause:
		if !m.Status.Phase.IsActive() {
			return m.restart()
		}
		m.report(errmsg.OpPlaybackPause, coord.TogglePlayback())
	case keymap.ActionStop:
		m.report(errmsg.OpPlaybackStop, coord.StopAndRelease())
	case keymap.ActionRestart:
		return m.restart()
	case keymap.ActionSeekForward:
		m.report(errmsg.OpPlaybackSeek, coord.Seek(seekStep*time.Second))
	case keymap.ActionSeekBack:
		m.report(errmsg.OpPlaybackSeek, coord.Seek(-seekStep*time.Second))
	case keymap.ActionSeekStart:
		m.report(errmsg.OpPlaybackSeek, coord.SeekTo(0))
	case keymap.ActionToggleLoop:
		enabled, err := m.Host.ToggleLoop()
		if m.report(errmsg.OpPlaybackLoop, err) {
			m.Status.Loop = enabled
		}
	default:
		return handler.NotHandled
	}
	return handler.HandledNoCmd
}

func (m *Model) handleVolumeAction(action keymap.Action) handler.Result {
	switch action { //nolint:exhaustive // other actions handled elsewhere
	case keymap.ActionVolumeUp:
		m.Host.AdjustVolume(volumeStep)
	case keymap.ActionVolumeDown:
		m.Host.AdjustVolume(-volumeStep)
	case keymap.ActionToggleMute:
		m.Host.ToggleMute()
	default:
		return handler.NotHandled
	}
	return handler.HandledNoCmd
}

func (m *Model) restart() handler.Result {
	if m.Track.StreamURL == "" {
		return handler.HandledNoCmd
	}
	m.Loading = true
	m.ErrorMsg = ""
	return handler.Handled(PlayCmd(m.Host, m.Track))
}

// report records err for display and returns true when there was none.
func (m *Model) report(op errmsg.Op, err error) bool {
	if err != nil {
		m.ErrorMsg = errmsg.Format(op, err)
		m.log.WithError(err).WithField("op", string(op)).Warn("command failed")
		return false
	}
	m.ErrorMsg = ""
	return true
}
