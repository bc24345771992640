package keymap

// Binding contexts. Global bindings stay live while the UI is detached.
const (
	ContextPlayback = "playback"
	ContextVolume   = "volume"
	ContextGlobal   = "global"
)

// Binding describes a single key binding.
type Binding struct {
	Action      Action
	Keys        []string
	Description string
	Context     string
}

// Bindings contains all key bindings, in help display order.
var Bindings = []Binding{
	// Playback
	{ActionPlayPause, []string{" ", "p"}, "Play/pause", ContextPlayback},
	{ActionStop, []string{"s"}, "Stop and release", ContextPlayback},
	{ActionRestart, []string{"r"}, "Play track again", ContextPlayback},
	{ActionSeekBack, []string{"left", "h"}, "Seek -5s", ContextPlayback},
	{ActionSeekForward, []string{"right", "l"}, "Seek +5s", ContextPlayback},
	{ActionSeekStart, []string{"0", "home"}, "Seek to start", ContextPlayback},
	{ActionToggleLoop, []string{"L"}, "Toggle loop", ContextPlayback},

	// Volume
	{ActionVolumeUp, []string{"+", "="}, "Volume up", ContextVolume},
	{ActionVolumeDown, []string{"-"}, "Volume down", ContextVolume},
	{ActionToggleMute, []string{"m"}, "Mute", ContextVolume},

	// Global
	{ActionDetach, []string{"d"}, "Detach/attach UI", ContextGlobal},
	{ActionHelp, []string{"?"}, "Show help", ContextGlobal},
	{ActionQuit, []string{"q", "ctrl+c"}, "Quit", ContextGlobal},
}

// ByContext returns key bindings filtered by context.
func ByContext(context string) []Binding {
	var result []Binding
	for _, kb := range Bindings {
		if kb.Context == context {
			result = append(result, kb)
		}
	}
	return result
}
