// Package handler chains the key action handlers of the player UI.
package handler

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/llehouerou/streamer/internal/keymap"
)

// Result is the outcome of offering an action to a handler.
type Result struct {
	Handled bool
	Cmd     tea.Cmd
}

// NotHandled passes the action on to the next handler.
var NotHandled = Result{}

// HandledNoCmd consumes the action without a follow-up command.
var HandledNoCmd = Result{Handled: true}

// Handled consumes the action and schedules cmd.
func Handled(cmd tea.Cmd) Result {
	return Result{Handled: true, Cmd: cmd}
}

// Handler reacts to one resolved key action.
type Handler func(action keymap.Action) Result

// Chain offers action to handlers in order and returns the first result
// that handles it. An empty action is never offered.
func Chain(action keymap.Action, handlers ...Handler) Result {
	if action == "" {
		return NotHandled
	}
	for _, h := range handlers {
		if r := h(action); r.Handled {
			return r
		}
	}
	return NotHandled
}
