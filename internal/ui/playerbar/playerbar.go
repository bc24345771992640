package playerbar

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/llehouerou/streamer/internal/icons"
	"github.com/llehouerou/streamer/internal/playback"
	"github.com/llehouerou/streamer/internal/ui/render"
)

// Height is the rendered height: top border, content, bottom border.
const Height = 3

// State holds everything needed to render the player bar.
type State struct {
	Phase    playback.Phase
	Loading  bool // a PlayTrack is in flight
	Title    string
	Subtitle string
	Position time.Duration
	Duration time.Duration
	Loop     bool
	Volume   float64
	Muted    bool
}

// NewState builds a State from a coordinator status. volume and muted are
// the user's settings, not the engine level, which is zero while muted.
func NewState(s playback.Status, volume float64, muted bool) State {
	st := State{
		Phase:    s.Phase,
		Position: s.Position,
		Duration: s.Duration,
		Loop:     s.Loop,
		Volume:   volume,
		Muted:    muted,
	}
	if s.Track != nil {
		st.Title = s.Track.DisplayTitle()
		st.Subtitle = s.Track.Subtitle()
	}
	return st
}

// Render returns the player bar for the given width.
func Render(s State, width int) string {
	innerWidth := max(width-6, 0) // border and padding

	var content string
	if s.Title == "" && !s.Loading {
		content = render.Row(idleStyle().Render("Nothing playing"), rightBlock(s), innerWidth)
	} else {
		content = renderTrack(s, innerWidth)
	}
	return barStyle().Padding(0, 2).Width(max(width-2, 0)).Render(content)
}

func renderTrack(s State, innerWidth int) string {
	status := statusStyle(s).Render(statusIcon(s))
	timeStr := timeStyle().Render(timeLabel(s.Position, s.Duration))
	right := rightBlock(s)

	title := s.Title
	if title == "" {
		title = "Loading…"
	}

	separator := "   "
	sepWidth := lipgloss.Width(separator)
	fixed := lipgloss.Width(status) + 2 + sepWidth*2 + lipgloss.Width(timeStr) + sepWidth + lipgloss.Width(right)
	available := innerWidth - fixed - MinBarWidth

	titleWidth := lipgloss.Width(title)
	subWidth := lipgloss.Width(s.Subtitle)

	var text string
	var used int
	switch {
	case s.Subtitle != "" && titleWidth+sepWidth+subWidth <= available:
		text = titleStyle().Render(title) + separator + subtitleStyle().Render(s.Subtitle)
		used = titleWidth + sepWidth + subWidth
	case s.Subtitle != "" && titleWidth+sepWidth+MinBarWidth <= available:
		maxSub := available - titleWidth - sepWidth
		sub := render.TruncateEllipsis(s.Subtitle, maxSub)
		text = titleStyle().Render(title) + separator + subtitleStyle().Render(sub)
		used = titleWidth + sepWidth + lipgloss.Width(sub)
	default:
		t := render.TruncateEllipsis(title, max(available, 10))
		text = titleStyle().Render(t)
		used = lipgloss.Width(t)
	}

	barWidth := max(innerWidth-fixed-used, MinBarWidth)

	// ▶  Title   Subtitle   ━━━───   1:23 / 3:58   [1]  vol 100%
	var b strings.Builder
	b.WriteString(status)
	b.WriteString("  ")
	b.WriteString(text)
	b.WriteString(separator)
	b.WriteString(RenderProgressBar(s.Position, s.Duration, barWidth))
	b.WriteString(separator)
	b.WriteString(timeStr)
	b.WriteString(separator)
	b.WriteString(right)
	return b.String()
}

func rightBlock(s State) string {
	vol := RenderVolume(s.Volume, s.Muted)
	if !s.Loop {
		return vol
	}
	return timeStyle().Render(icons.Loop()) + "  " + vol
}

func statusIcon(s State) string {
	if s.Loading {
		return icons.Loading()
	}
	switch s.Phase {
	case playback.PhasePlaying:
		return icons.Play()
	case playback.PhasePaused:
		return icons.Pause()
	default:
		return icons.Stop()
	}
}
