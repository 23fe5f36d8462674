// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

// Edge watching for controller output lines.

package spisim

import "errors"

// Edge selects the level transitions that trigger a watch handler.
type Edge string

const (
	EdgeNone    Edge = "none"
	EdgeRising  Edge = "rising"
	EdgeFalling Edge = "falling"
	EdgeBoth    Edge = "both"
)

var (
	// ErrAlreadyWatched indicates the line already has a watch handler.
	ErrAlreadyWatched = errors.New("watch already exists")
)

// matches returns true if a transition to the given level is one of the
// edges selected by e.
func (e Edge) matches(level Level) bool {
	switch e {
	case EdgeBoth:
		return true
	case EdgeRising:
		return level == High
	case EdgeFalling:
		return level == Low
	}
	return false
}

// Watch the line for changes to level.
// The handler is called immediately, to allow the handler to initialise its state
// with the current level, and then on the specified edges.
// The edge determines which edge to watch.
// There can only be one watcher on the line at a time.
//
// The handler is called synchronously from within the register access that
// caused the edge, so it must not access the Controller itself.
func (l *Line) Watch(edge Edge, handler func(*Line)) error {
	l.mu.Lock()
	if l.handler != nil {
		l.mu.Unlock()
		return ErrAlreadyWatched
	}
	l.edge = edge
	l.handler = handler
	l.mu.Unlock()
	handler(l)
	return nil
}

// Unwatch removes any watch from the line.
func (l *Line) Unwatch() {
	l.mu.Lock()
	l.edge = EdgeNone
	l.handler = nil
	l.mu.Unlock()
}
