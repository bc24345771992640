package keymap

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

// Help adapts Bindings to the bubbles help.KeyMap interface.
type Help struct {
	short []key.Binding
	full  [][]key.Binding
}

// NewHelp builds the help key map. The short view lists one binding per
// context; the full view lists every binding grouped by context.
func NewHelp() Help {
	h := Help{}
	for _, context := range []string{ContextPlayback, ContextVolume, ContextGlobal} {
		var group []key.Binding
		for _, b := range ByContext(context) {
			group = append(group, toKeyBinding(b))
		}
		h.full = append(h.full, group)
	}
	for _, action := range []Action{ActionPlayPause, ActionToggleLoop, ActionDetach, ActionHelp, ActionQuit} {
		for _, b := range Bindings {
			if b.Action == action {
				h.short = append(h.short, toKeyBinding(b))
				break
			}
		}
	}
	return h
}

func (h Help) ShortHelp() []key.Binding  { return h.short }
func (h Help) FullHelp() [][]key.Binding { return h.full }

func toKeyBinding(b Binding) key.Binding {
	labels := make([]string, len(b.Keys))
	for i, k := range b.Keys {
		labels[i] = displayKey(k)
	}
	return key.NewBinding(
		key.WithKeys(b.Keys...),
		key.WithHelp(strings.Join(labels, "/"), strings.ToLower(b.Description)),
	)
}

func displayKey(k string) string {
	switch k {
	case " ":
		return "space"
	case "left":
		return "←"
	case "right":
		return "→"
	default:
		return k
	}
}
