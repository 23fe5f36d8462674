// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

package spisim

import "log/slog"

// canTransfer returns true if a DR write should clock out a byte.
// Exactly one chip select may be asserted, so both asserted is treated the
// same as neither.
func (c *Controller) canTransfer() bool {
	return c.spe && c.mstr && (c.cs.cs0() != c.cs.cs1())
}

// writeDR stores the low byte of v and, if the controller is enabled,
// in master mode, and has a single chip select asserted, transfers it.
//
// Otherwise the byte is stored and the status is left untouched.
func (c *Controller) writeDR(v uint32) {
	c.dr = v & 0xff
	if !c.canTransfer() {
		c.debug("transfer suppressed",
			slog.Bool("spe", c.spe),
			slog.Bool("mstr", c.mstr),
			slog.Bool("cs0", c.cs.cs0()),
			slog.Bool("cs1", c.cs.cs1()))
		return
	}
	c.transfer(uint8(c.dr))
}

// transfer exchanges a byte with the peer.
// BSY is only set for the duration of the exchange.
func (c *Controller) transfer(tx uint8) {
	c.sr &^= StatusTXE
	c.sr |= StatusBSY

	rx := c.peer.Exchange(tx)

	// the previous byte was never read
	if c.sr&StatusRXNE != 0 {
		c.sr |= StatusOVR
	}
	c.rxData = rx

	c.sr |= StatusRXNE | StatusTXE
	c.sr &^= StatusBSY

	c.debug("transfer",
		slog.String("tx", hex8(tx)),
		slog.String("rx", hex8(rx)),
		slog.Bool("ovr", c.sr&StatusOVR != 0))
	c.updateIRQ()
}

// readDR returns the last received byte and marks it as read.
// The byte itself is retained.
func (c *Controller) readDR() uint32 {
	v := uint32(c.rxData)
	c.sr &^= StatusRXNE | StatusOVR
	c.updateIRQ()
	return v
}
