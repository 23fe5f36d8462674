// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

package spisim

import (
	"fmt"
	"sync"
)

// Level represents the high (true) or low (false) level of a Line.
type Level bool

// Level of line, High / Low
const (
	Low  Level = false
	High Level = true
)

func (l Level) String() string {
	if l {
		return "high"
	}
	return "low"
}

// Line represents one of the controller output signals.
//
// The chip select lines are active low, so Low asserts the chip select.
// The interrupt line is active high.
//
// Lines are driven only by the Controller. Hosts observe them by reading
// the level or by watching for edges.
type Line struct {
	// Immutable fields
	name string

	mu sync.Mutex // Guards the following.
	// Mutable fields
	level   Level
	edge    Edge
	handler func(*Line)
}

func newLine(name string) *Line {
	return &Line{name: name}
}

// Name returns the name of the line, e.g. "cs0".
func (l *Line) Name() string {
	return l.name
}

// Level returns the level most recently driven onto the line.
func (l *Line) Level() Level {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

func (l *Line) String() string {
	return fmt.Sprintf("%s=%s", l.name, l.Level())
}

// drive sets the level of the line and calls the watch handler if the
// change matches the watched edge.
// Driving the current level again is not an edge.
func (l *Line) drive(level Level) {
	l.mu.Lock()
	prev := l.level
	l.level = level
	handler := l.handler
	edge := l.edge
	l.mu.Unlock()
	if prev == level || handler == nil {
		return
	}
	if edge.matches(level) {
		handler(l)
	}
}
