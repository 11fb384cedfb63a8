// Package keys dispatches terminal key events to named actions, with
// per-view bindings taking precedence over global ones.
package keys

import "github.com/gdamore/tcell/v2"

// Action binds a key (or rune) to a handler.
type Action struct {
	Key         tcell.Key
	Rune        rune
	Description string
	Handler     func()
}

// Matches reports whether the event triggers this action. Rune actions
// use Key == tcell.KeyRune and compare the rune.
func (a *Action) Matches(ev *tcell.EventKey) bool {
	if a.Key == tcell.KeyRune {
		return ev.Key() == tcell.KeyRune && ev.Rune() == a.Rune
	}
	return ev.Key() == a.Key
}

type binding struct {
	name   string
	action *Action
}

// Registry holds key bindings. Dispatch order is registration order,
// view bindings before global ones.
type Registry struct {
	global []binding
	views  map[string][]binding
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{views: make(map[string][]binding)}
}

// AddGlobal registers a binding active on every view.
func (r *Registry) AddGlobal(name string, action *Action) {
	r.global = append(r.global, binding{name, action})
}

// AddView registers a binding active only while the named view is on top.
func (r *Registry) AddView(view, name string, action *Action) {
	r.views[view] = append(r.views[view], binding{name, action})
}

// HandleEvent runs the first matching action for the event, view bindings
// first. Returns whether any action fired.
func (r *Registry) HandleEvent(view string, ev *tcell.EventKey) bool {
	for _, b := range r.views[view] {
		if b.action.Matches(ev) {
			b.action.Handler()
			return true
		}
	}
	for _, b := range r.global {
		if b.action.Matches(ev) {
			b.action.Handler()
			return true
		}
	}
	return false
}
