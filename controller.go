// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

// Package spisim models the register interface of a simple SPI master
// controller.
//
// The controller has five 32-bit registers:
//   - CR1, mode control (SPI enable, master mode)
//   - CR2, interrupt enables (TXE, RXNE, error)
//   - SR, status (RXNE, TXE, UDR, OVR, BSY)
//   - DR, data
//   - CSCTRL, chip select control (enable and active request for CS0 and CS1)
//
// and three output lines, two active low chip selects and an active high
// interrupt.
//
// Writing DR in enabled master mode with exactly one chip select asserted
// exchanges one byte with the connected peer. The exchange completes before
// the write returns.
//
// Example of use:
//
//	c := spisim.New(spisim.WithExchanger(peer))
//	c.Write(spisim.CR1, spisim.CR1SPE|spisim.CR1MSTR)
//	c.Write(spisim.CSCTRL, spisim.CS0Enable|spisim.CS0Active)
//	c.Write(spisim.DR, 0x5a)
//	rx := c.Read(spisim.DR)
//
// The package does not support multi-byte transfers, word widths other than
// 8 bits, clock polarity/phase or baud rate selection.
package spisim

import (
	"log/slog"
)

// Exchanger is the peer end of the serial link.
//
// Exchange clocks out tx and returns the byte clocked in at the same time.
// It must not block.
type Exchanger interface {
	Exchange(tx uint8) uint8
}

// ExchangerFunc adapts a function to an Exchanger.
type ExchangerFunc func(tx uint8) uint8

// Exchange calls f(tx).
func (f ExchangerFunc) Exchange(tx uint8) uint8 {
	return f(tx)
}

// unconnected is the peer of a controller with nothing on its bus.
var unconnected = ExchangerFunc(func(uint8) uint8 { return 0 })

// Controller is the state of one SPI controller.
//
// A Controller is not safe for concurrent use. Register accesses are
// expected to be serialised by the host, e.g. by an MMIO.
type Controller struct {
	cr1    uint32
	cr2    uint32
	sr     uint32
	dr     uint32
	csctrl uint32
	rxData uint8

	// derived from cr1
	spe  bool
	mstr bool
	// derived from csctrl
	cs chipSelects

	cs0 *Line
	cs1 *Line
	irq *Line

	peer   Exchanger
	logger *slog.Logger
}

// Option modifies the construction of a Controller.
type Option func(*Controller)

// WithExchanger connects the controller to a peer.
func WithExchanger(x Exchanger) Option {
	return func(c *Controller) {
		c.peer = x
	}
}

// WithLogger sets the logger used for diagnostics.
// The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = l
	}
}

// New creates a Controller in its reset state.
func New(options ...Option) *Controller {
	c := &Controller{
		cs0:    newLine("cs0"),
		cs1:    newLine("cs1"),
		irq:    newLine("irq"),
		peer:   unconnected,
		logger: slog.Default(),
	}
	for _, option := range options {
		option(c)
	}
	c.Reset()
	return c
}

// Connect replaces the peer of the controller.
// A nil peer disconnects the controller, after which exchanges return 0.
func (c *Controller) Connect(x Exchanger) {
	if x == nil {
		x = unconnected
	}
	c.peer = x
}

// CS0 returns the CS0 output line.
func (c *Controller) CS0() *Line {
	return c.cs0
}

// CS1 returns the CS1 output line.
func (c *Controller) CS1() *Line {
	return c.cs1
}

// IRQ returns the interrupt output line.
func (c *Controller) IRQ() *Line {
	return c.irq
}

// RxData returns the byte received by the most recent transfer.
// Unlike a read of DR it has no side effects.
func (c *Controller) RxData() uint8 {
	return c.rxData
}

// Reset returns the controller to its power-on state.
func (c *Controller) Reset() {
	c.cr1 = 0
	c.cr2 = 0
	c.sr = srReset
	c.dr = 0
	c.csctrl = 0
	c.rxData = 0
	c.spe, c.mstr = decodeCR1(c.cr1)
	c.cs = decodeCSCTRL(c.csctrl)
	c.updateCS()
	c.updateIRQ()
}

// Read returns the value of a register.
//
// Reading DR returns the last received byte and clears RXNE and OVR.
// Reading an undefined offset returns 0.
func (c *Controller) Read(r Register) uint32 {
	switch r {
	case CR1:
		return c.cr1
	case CR2:
		return c.cr2
	case SR:
		return c.sr
	case DR:
		return c.readDR()
	case CSCTRL:
		return c.csctrl
	}
	c.warn("bad read offset", slog.String("offset", r.String()))
	return 0
}

// Write sets the value of a register.
//
// Only OVR and UDR in SR are writable, and only to clear them.
// Writing DR may trigger a transfer.
// Writes to undefined offsets are dropped.
func (c *Controller) Write(r Register, v uint32) {
	switch r {
	case CR1:
		c.cr1 = v
		c.spe, c.mstr = decodeCR1(v)
	case CR2:
		c.cr2 = v
		c.updateIRQ()
	case SR:
		c.sr = clearOnWrite(c.sr, v)
		c.updateIRQ()
	case DR:
		c.writeDR(v)
	case CSCTRL:
		c.csctrl = v
		c.cs = decodeCSCTRL(v)
		c.updateCS()
	default:
		c.warn("bad write offset",
			slog.String("offset", r.String()),
			slog.String("value", hex32(v)))
	}
}

// updateCS drives the chip select lines from the effective chip select state.
func (c *Controller) updateCS() {
	c.cs0.drive(Level(!c.cs.cs0()))
	c.cs1.drive(Level(!c.cs.cs1()))
}

// updateIRQ drives the interrupt line from CR2 and SR.
func (c *Controller) updateIRQ() {
	c.irq.drive(Level(irqPending(c.cr2, c.sr)))
}
