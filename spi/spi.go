// SPDX-License-Identifier: MIT
//
// Copyright © 2018 Kent Gibson <warthog618@gmail.com>.

// Package spi provides the peer side of a simulated SPI controller.
//
// A Bus connects up to two peer devices to a controller, one on each chip
// select, and routes each byte exchange to the selected device.
package spi

import (
	"errors"
	"sync"

	"github.com/warthog618/spisim"
)

// Device is a peer connected to the bus.
type Device interface {
	// Transfer receives tx and returns the byte to send back in the same
	// exchange.
	Transfer(tx uint8) uint8
}

// Selector is implemented by devices that need to know when their chip
// select changes, e.g. to frame commands.
type Selector interface {
	// Select is called with true when the chip select is asserted and with
	// false when it is released.
	Select(selected bool)
}

// NumCS is the number of chip selects on the bus.
const NumCS = 2

var (
	// ErrInvalidCS indicates a chip select outside the bus.
	ErrInvalidCS = errors.New("invalid chip select")

	// ErrSlotInUse indicates a chip select that already has a device.
	ErrSlotInUse = errors.New("chip select already in use")
)

// Bus routes byte exchanges from a controller to its peers.
type Bus struct {
	mu      sync.Mutex // Guards the following.
	devs    [NumCS]Device
	sel     [NumCS]bool
	c       *spisim.Controller
	closed  bool
	watched []*spisim.Line
}

// NewBus creates a bus and connects it to the controller.
//
// The bus watches the controller chip select lines, so they must not
// already be watched.
func NewBus(c *spisim.Controller) (*Bus, error) {
	b := &Bus{c: c}
	for i, l := range []*spisim.Line{c.CS0(), c.CS1()} {
		cs := i
		err := l.Watch(spisim.EdgeBoth, func(l *spisim.Line) {
			b.setSelect(cs, l.Level() == spisim.Low)
		})
		if err != nil {
			b.unwatch()
			return nil, err
		}
		b.watched = append(b.watched, l)
	}
	c.Connect(b)
	return b, nil
}

// Close disconnects the bus from the controller.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.mu.Unlock()
	b.unwatch()
	b.c.Connect(nil)
}

func (b *Bus) unwatch() {
	for _, l := range b.watched {
		l.Unwatch()
	}
	b.watched = nil
}

// Connect adds a device to the bus on the given chip select.
//
// If the chip select is already asserted and the device is a Selector it is
// selected immediately.
func (b *Bus) Connect(cs int, d Device) error {
	if cs < 0 || cs >= NumCS {
		return ErrInvalidCS
	}
	b.mu.Lock()
	if b.devs[cs] != nil {
		b.mu.Unlock()
		return ErrSlotInUse
	}
	b.devs[cs] = d
	sel := b.sel[cs]
	b.mu.Unlock()
	if s, ok := d.(Selector); ok && sel {
		s.Select(true)
	}
	return nil
}

// Disconnect removes the device from the given chip select.
func (b *Bus) Disconnect(cs int) {
	if cs < 0 || cs >= NumCS {
		return
	}
	b.mu.Lock()
	b.devs[cs] = nil
	b.mu.Unlock()
}

// Selected returns true if the given chip select is asserted.
func (b *Bus) Selected(cs int) bool {
	if cs < 0 || cs >= NumCS {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sel[cs]
}

// Exchange passes tx to every selected device and returns the OR of their
// replies.
// With no device selected the bus reads as 0.
func (b *Bus) Exchange(tx uint8) uint8 {
	b.mu.Lock()
	var devs []Device
	for cs, d := range b.devs {
		if d != nil && b.sel[cs] {
			devs = append(devs, d)
		}
	}
	b.mu.Unlock()
	var rx uint8
	for _, d := range devs {
		rx |= d.Transfer(tx)
	}
	return rx
}

func (b *Bus) setSelect(cs int, sel bool) {
	b.mu.Lock()
	prev := b.sel[cs]
	b.sel[cs] = sel
	d := b.devs[cs]
	b.mu.Unlock()
	if prev == sel || d == nil {
		return
	}
	if s, ok := d.(Selector); ok {
		s.Select(sel)
	}
}

// Loopback is a device that returns each byte it receives.
type Loopback struct{}

// Transfer returns tx.
func (Loopback) Transfer(tx uint8) uint8 {
	return tx
}

// Func adapts a function to a Device.
type Func func(tx uint8) uint8

// Transfer calls f(tx).
func (f Func) Transfer(tx uint8) uint8 {
	return f(tx)
}
