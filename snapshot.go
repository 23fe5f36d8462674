// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

package spisim

import (
	"encoding/json"
	"io"
	"log/slog"

	"github.com/pkg/errors"
)

// SnapshotVersion is the version of the Snapshot field list.
const SnapshotVersion = 1

var (
	// ErrSnapshotVersion indicates a snapshot with an unsupported version.
	ErrSnapshotVersion = errors.New("unsupported snapshot version")
)

// Snapshot is the saved state of a Controller.
//
// The flags are recorded for completeness but are always re-derived from
// CR1 and CSCTRL on restore.
type Snapshot struct {
	Version int    `json:"version"`
	CR1     uint32 `json:"cr1"`
	CR2     uint32 `json:"cr2"`
	SR      uint32 `json:"sr"`
	DR      uint32 `json:"dr"`
	CSCTRL  uint32 `json:"csctrl"`
	RxData  uint8  `json:"rx_data"`
	SPE     bool   `json:"spe"`
	MSTR    bool   `json:"mstr"`
	CS0En   bool   `json:"cs0_en"`
	CS0Act  bool   `json:"cs0_act"`
	CS1En   bool   `json:"cs1_en"`
	CS1Act  bool   `json:"cs1_act"`
}

// Snapshot returns the current state of the controller.
func (c *Controller) Snapshot() Snapshot {
	return Snapshot{
		Version: SnapshotVersion,
		CR1:     c.cr1,
		CR2:     c.cr2,
		SR:      c.sr,
		DR:      c.dr,
		CSCTRL:  c.csctrl,
		RxData:  c.rxData,
		SPE:     c.spe,
		MSTR:    c.mstr,
		CS0En:   c.cs.cs0En,
		CS0Act:  c.cs.cs0Act,
		CS1En:   c.cs.cs1En,
		CS1Act:  c.cs.cs1Act,
	}
}

// Restore loads the controller state from a snapshot and drives the output
// lines to match.
//
// Registers are loaded as is, bypassing the write side effects, so SR may
// be restored with any combination of status bits.
func (c *Controller) Restore(s Snapshot) error {
	if s.Version != SnapshotVersion {
		return errors.Wrapf(ErrSnapshotVersion, "version %d", s.Version)
	}
	c.cr1 = s.CR1
	c.cr2 = s.CR2
	c.sr = s.SR
	c.dr = s.DR
	c.csctrl = s.CSCTRL
	c.rxData = s.RxData
	c.spe, c.mstr = decodeCR1(c.cr1)
	c.cs = decodeCSCTRL(c.csctrl)
	stored := chipSelects{s.CS0En, s.CS0Act, s.CS1En, s.CS1Act}
	if stored != c.cs || s.SPE != c.spe || s.MSTR != c.mstr {
		c.warn("snapshot flags disagree with registers",
			slog.String("cr1", hex32(c.cr1)),
			slog.String("csctrl", hex32(c.csctrl)))
	}
	c.updateCS()
	c.updateIRQ()
	return nil
}

// WriteSnapshot writes the controller state to w as JSON.
func (c *Controller) WriteSnapshot(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(c.Snapshot()), "write snapshot")
}

// ReadSnapshot restores the controller state from JSON read from r.
func (c *Controller) ReadSnapshot(r io.Reader) error {
	var s Snapshot
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return errors.Wrap(err, "read snapshot")
	}
	return c.Restore(s)
}
