package playerbar

import (
	"fmt"
	"strings"
	"time"
)

// MinBarWidth is the narrowest progress bar worth drawing.
const MinBarWidth = 5

// RenderProgressBar renders a line-style bar of width cells.
// Format: ━━━━━━──────
func RenderProgressBar(position, duration time.Duration, width int) string {
	if width <= 0 {
		return ""
	}
	filled := filledCells(position, duration, width)
	return progressBarFilled().Render(strings.Repeat("━", filled)) +
		progressBarEmpty().Render(strings.Repeat("─", width-filled))
}

func filledCells(position, duration time.Duration, width int) int {
	if duration <= 0 || position <= 0 {
		return 0
	}
	ratio := float64(position) / float64(duration)
	return max(0, min(int(float64(width)*ratio), width))
}

// formatDuration renders d as m:ss, or h:mm:ss past an hour.
func formatDuration(d time.Duration) string {
	d = max(d, 0)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// timeLabel is "1:23 / 3:58", or only the position when the length is unknown.
func timeLabel(position, duration time.Duration) string {
	if duration <= 0 {
		return formatDuration(position)
	}
	return formatDuration(position) + " / " + formatDuration(duration)
}
