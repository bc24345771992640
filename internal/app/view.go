package app

import (
	"strings"

	"github.com/llehouerou/streamer/internal/icons"
	"github.com/llehouerou/streamer/internal/ui/playerbar"
	"github.com/llehouerou/streamer/internal/ui/render"
	"github.com/llehouerou/streamer/internal/ui/styles"
)

const defaultWidth = 80

// View implements tea.Model.
func (m Model) View() string {
	width := m.Width
	if width <= 0 {
		width = defaultWidth
	}
	s := styles.T().S()

	var sections []string

	if m.Attached() {
		volume, muted := m.Host.Volume()
		state := playerbar.NewState(m.Status, volume, muted)
		state.Loading = m.Loading
		sections = append(sections, playerbar.Render(state, width))
	} else {
		msg := icons.Detached() + "  Detached. Playback continues in the background."
		sections = append(sections,
			s.Border.Padding(0, 2).Width(max(width-2, 0)).Render(s.Warning.Render(msg)))
	}

	if m.ErrorMsg != "" {
		sections = append(sections, s.Error.Render(render.TruncateEllipsis(m.ErrorMsg, width)))
	}

	sections = append(sections, m.Help.View(m.HelpKeys))

	return strings.Join(sections, "\n")
}
