// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

package spisim

import (
	"context"
	"fmt"
	"log/slog"
)

// LevelGuestError is the level of diagnostics for invalid guest register
// accesses.
const LevelGuestError = slog.LevelWarn

func (c *Controller) warn(msg string, attrs ...slog.Attr) {
	c.logattrs(LevelGuestError, msg, attrs...)
}

func (c *Controller) debug(msg string, attrs ...slog.Attr) {
	c.logattrs(slog.LevelDebug, msg, attrs...)
}

func (c *Controller) logattrs(level slog.Level, msg string, attrs ...slog.Attr) {
	if c.logger == nil {
		return
	}
	c.logger.LogAttrs(context.Background(), level, "spi: "+msg, attrs...)
}

func hex8(v uint8) string {
	return fmt.Sprintf("0x%02x", v)
}

func hex32(v uint32) string {
	return fmt.Sprintf("0x%08x", v)
}
