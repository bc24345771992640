package playerbar

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/llehouerou/streamer/internal/playback"
	"github.com/llehouerou/streamer/internal/ui/styles"
)

func barStyle() lipgloss.Style      { return styles.T().S().Border }
func titleStyle() lipgloss.Style    { return styles.T().S().Title }
func subtitleStyle() lipgloss.Style { return styles.T().S().Muted }
func timeStyle() lipgloss.Style     { return styles.T().S().Muted }
func idleStyle() lipgloss.Style     { return styles.T().S().Subtle }

func statusStyle(s State) lipgloss.Style {
	switch s.Phase {
	case playback.PhasePlaying:
		return styles.T().S().Playing
	case playback.PhasePaused:
		return styles.T().S().Warning
	default:
		return styles.T().S().Muted
	}
}

func progressBarFilled() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(styles.T().Primary)
}

func progressBarEmpty() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(styles.T().FgSubtle)
}
