// SPDX-License-Identifier: MIT
//
// Copyright © 2018 Kent Gibson <warthog618@gmail.com>.

// Package mcp3w0c provides an emulated MCP3004/3008/3204/3208 SPI ADC and a
// driver that reads it through the controller registers.
package mcp3w0c

import (
	"errors"
	"sync"

	"github.com/warthog618/spisim"
)

// Regs is the register interface of the controller the driver uses.
type Regs interface {
	Read(spisim.Register) uint32
	Write(spisim.Register, uint32)
}

// maxPoll bounds the number of SR reads waiting for RXNE.
const maxPoll = 16

var (
	// ErrNoResponse indicates the controller did not complete a transfer,
	// e.g. because another chip select is asserted.
	ErrNoResponse = errors.New("no response from controller")

	// ErrInvalidCS indicates a chip select the controller does not have.
	ErrInvalidCS = errors.New("invalid chip select")
)

// MCP3w0c reads ADC values from a Microchip MCP3xxx family device connected
// to a controller.
// Supported variants are MCP3004/3008/3204/3208.
// The w indicates the width of the device (0 => 10, 2 => 12)
// and the c the number of channels.
type MCP3w0c struct {
	Mu    sync.Mutex
	regs  Regs
	cs    int
	width uint
}

// New creates a MCP3w0c on the given chip select.
func New(regs Regs, cs int, width uint) (*MCP3w0c, error) {
	if cs < 0 || cs > 1 {
		return nil, ErrInvalidCS
	}
	return &MCP3w0c{regs: regs, cs: cs, width: width}, nil
}

// NewMCP3008 creates a MCP3008.
func NewMCP3008(regs Regs, cs int) (*MCP3w0c, error) {
	return New(regs, cs, 10)
}

// NewMCP3208 creates a MCP3208.
func NewMCP3208(regs Regs, cs int) (*MCP3w0c, error) {
	return New(regs, cs, 12)
}

// Read returns the value of a single channel read from the ADC.
func (adc *MCP3w0c) Read(ch int) (uint16, error) {
	return adc.read(ch, 1)
}

// ReadDifferential returns the value of a differential pair read from the ADC.
func (adc *MCP3w0c) ReadDifferential(ch int) (uint16, error) {
	return adc.read(ch, 0)
}

func (adc *MCP3w0c) csBits() uint32 {
	if adc.cs == 0 {
		return spisim.CS0Enable | spisim.CS0Active
	}
	return spisim.CS1Enable | spisim.CS1Active
}

func (adc *MCP3w0c) read(ch int, sgl uint32) (uint16, error) {
	adc.Mu.Lock()
	defer adc.Mu.Unlock()

	r := adc.regs
	r.Write(spisim.CR1, r.Read(spisim.CR1)|spisim.CR1SPE|spisim.CR1MSTR)
	// discard any stale byte
	r.Read(spisim.DR)
	csctrl := r.Read(spisim.CSCTRL)
	r.Write(spisim.CSCTRL, csctrl|adc.csBits())
	defer r.Write(spisim.CSCTRL, csctrl&^adc.csBits())

	// Start, SGL/DIFFZ, D2-D0, then one clock to sample, a null bit
	// and width bits of data, right aligned in three bytes.
	cmd := (1<<4 | sgl<<3 | uint32(ch)&0x07) << (adc.width + 2)
	var d uint32
	for shift := 16; shift >= 0; shift -= 8 {
		rx, err := adc.exchange(uint8(cmd >> uint(shift)))
		if err != nil {
			return 0, err
		}
		d = d<<8 | uint32(rx)
	}
	return uint16(d & (1<<adc.width - 1)), nil
}

func (adc *MCP3w0c) exchange(tx uint8) (uint8, error) {
	r := adc.regs
	r.Write(spisim.DR, uint32(tx))
	for i := 0; i < maxPoll; i++ {
		if r.Read(spisim.SR)&spisim.StatusRXNE != 0 {
			return uint8(r.Read(spisim.DR)), nil
		}
	}
	return 0, ErrNoResponse
}
