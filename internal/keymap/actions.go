// Package keymap defines key bindings and action dispatch for the application.
package keymap

// Action represents a user-triggerable action.
type Action string

const (
	// Global actions
	ActionQuit   Action = "quit"
	ActionHelp   Action = "help"
	ActionDetach Action = "detach" // unbind the UI, playback continues

	// Playback actions
	ActionPlayPause   Action = "play_pause"
	ActionStop        Action = "stop"
	ActionRestart     Action = "restart"
	ActionSeekForward Action = "seek_forward"
	ActionSeekBack    Action = "seek_back"
	ActionSeekStart   Action = "seek_start"
	ActionToggleLoop  Action = "toggle_loop"

	// Volume actions
	ActionVolumeUp   Action = "volume_up"
	ActionVolumeDown Action = "volume_down"
	ActionToggleMute Action = "toggle_mute"
)
