package keymap

import (
	"slices"

	tea "github.com/charmbracelet/bubbletea"
)

// Resolver maps key presses to actions. A key may be bound in several
// contexts; lookups can be restricted to the contexts that are live.
type Resolver struct {
	bindings map[string][]Binding // key -> bindings, declaration order
	byAction map[Action][]string  // action -> keys (for help/documentation)
}

// NewResolver creates a resolver from bindings.
func NewResolver(bindings []Binding) *Resolver {
	r := &Resolver{
		bindings: make(map[string][]Binding),
		byAction: make(map[Action][]string),
	}
	for _, b := range bindings {
		for _, key := range b.Keys {
			r.bindings[key] = append(r.bindings[key], b)
		}
		for _, key := range b.Keys {
			if !slices.Contains(r.byAction[b.Action], key) {
				r.byAction[b.Action] = append(r.byAction[b.Action], key)
			}
		}
	}
	return r
}

// Resolve returns the first action bound to key in one of contexts, or the
// empty action. With no contexts every binding is considered.
func (r *Resolver) Resolve(key string, contexts ...string) Action {
	for _, b := range r.bindings[key] {
		if len(contexts) == 0 || slices.Contains(contexts, b.Context) {
			return b.Action
		}
	}
	return ""
}

// ResolveKey resolves a key message from the terminal.
func (r *Resolver) ResolveKey(msg tea.KeyMsg, contexts ...string) Action {
	return r.Resolve(msg.String(), contexts...)
}

// KeysFor returns the keys bound to an action (for help/documentation).
func (r *Resolver) KeysFor(action Action) []string {
	return r.byAction[action]
}
