package app

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/llehouerou/streamer/internal/host"
	"github.com/llehouerou/streamer/internal/playback"
)

// WatchEvents returns a command that waits for the next event on sub.
// Update re-issues it after every EventMsg.
func WatchEvents(sub *playback.Subscription) tea.Cmd {
	if sub == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case e := <-sub.Events:
			return EventMsg{Sub: sub, Event: e}
		case <-sub.Done:
			return SubscriptionClosedMsg{Sub: sub}
		}
	}
}

// PlayCmd starts track through the host and reports the result. The load
// runs on the command goroutine, so the UI stays responsive.
func PlayCmd(h *host.Service, track playback.Track) tea.Cmd {
	return func() tea.Msg {
		return PlayResultMsg{Err: h.Play(context.Background(), track)}
	}
}
