// SPDX-License-Identifier: MIT
//
// Copyright © 2018 Kent Gibson <warthog618@gmail.com>.

package mcp3w0c

import (
	"sync"

	"github.com/warthog618/spisim/spi"
)

type peerState int

const (
	stateIdle peerState = iota
	stateCommand
	stateSample
	stateNull
	stateData
	stateDone
)

// Peer emulates an MCP3xxx ADC on the SPI bus.
//
// The conversation is clocked a bit at a time, MSB first, so commands need
// not be byte aligned. A conversation ends when the chip select is
// released.
type Peer struct {
	mu       sync.Mutex
	width    uint
	channels []uint16

	state peerState
	n     uint
	cmd   uint8
	conv  uint16
}

var _ spi.Device = &Peer{}
var _ spi.Selector = &Peer{}

// NewPeer creates an emulated ADC with the given resolution and number of
// channels.
func NewPeer(width uint, channels int) *Peer {
	return &Peer{width: width, channels: make([]uint16, channels)}
}

// NewMCP3008Peer creates an emulated MCP3008.
func NewMCP3008Peer() *Peer {
	return NewPeer(10, 8)
}

// NewMCP3208Peer creates an emulated MCP3208.
func NewMCP3208Peer() *Peer {
	return NewPeer(12, 8)
}

// Channels returns the number of input channels.
func (p *Peer) Channels() int {
	return len(p.channels)
}

// SetChannel sets the value the ADC converts on a channel.
// The value is clamped to the ADC resolution and invalid channels are
// ignored.
func (p *Peer) SetChannel(ch int, v uint16) {
	if ch < 0 || ch >= len(p.channels) {
		return
	}
	if limit := uint16(1<<p.width - 1); v > limit {
		v = limit
	}
	p.mu.Lock()
	p.channels[ch] = v
	p.mu.Unlock()
}

// Select implements spi.Selector.
func (p *Peer) Select(bool) {
	p.mu.Lock()
	p.state = stateIdle
	p.mu.Unlock()
}

// Transfer implements spi.Device.
func (p *Peer) Transfer(tx uint8) uint8 {
	p.mu.Lock()
	defer p.mu.Unlock()
	var rx uint8
	for i := 7; i >= 0; i-- {
		rx = rx<<1 | p.clock(tx>>uint(i)&0x01)
	}
	return rx
}

// clock handles one bit in and returns the bit out.
func (p *Peer) clock(di uint8) uint8 {
	switch p.state {
	case stateIdle:
		if di == 1 {
			p.state = stateCommand
			p.cmd = 0
			p.n = 0
		}
	case stateCommand:
		p.cmd = p.cmd<<1 | di
		p.n++
		if p.n == 4 {
			p.state = stateSample
		}
	case stateSample:
		p.conv = p.convert()
		p.state = stateNull
	case stateNull:
		p.state = stateData
		p.n = p.width
	case stateData:
		p.n--
		if p.n == 0 {
			p.state = stateDone
		}
		return uint8(p.conv>>p.n) & 0x01
	}
	return 0
}

// convert returns the conversion selected by the command bits.
func (p *Peer) convert() uint16 {
	sgl := p.cmd&0x08 != 0
	ch := int(p.cmd & 0x07)
	if sgl {
		if ch >= len(p.channels) {
			return 0
		}
		return p.channels[ch]
	}
	// pairs are CH0/CH1, CH2/CH3...  with the odd bit swapping polarity
	pos := ch &^ 1
	neg := pos + 1
	if ch&1 != 0 {
		pos, neg = neg, pos
	}
	if neg >= len(p.channels) || p.channels[pos] <= p.channels[neg] {
		return 0
	}
	return p.channels[pos] - p.channels[neg]
}
