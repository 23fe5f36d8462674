// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

package spisim

import (
	"fmt"
	"strconv"
	"strings"
)

// Register is the offset of a controller register within its MMIO window.
type Register uint32

// Register offsets.
const (
	CR1    Register = 0x00
	CR2    Register = 0x04
	SR     Register = 0x08
	DR     Register = 0x0c
	CSCTRL Register = 0x10
)

// Registers lists the defined registers in offset order.
var Registers = []Register{CR1, CR2, SR, DR, CSCTRL}

// CR1 bits.
const (
	CR1MSTR uint32 = 1 << 2 // master mode
	CR1SPE  uint32 = 1 << 6 // SPI enable
)

// CR2 interrupt enable bits.
const (
	CR2ERRIE  uint32 = 1 << 5
	CR2RXNEIE uint32 = 1 << 6
	CR2TXEIE  uint32 = 1 << 7
)

// SR bits.
const (
	StatusRXNE uint32 = 1 << 0 // receive buffer not empty
	StatusTXE  uint32 = 1 << 1 // transmit buffer empty
	StatusUDR  uint32 = 1 << 2 // underrun
	StatusOVR  uint32 = 1 << 3 // overrun
	StatusBSY  uint32 = 1 << 7 // busy
)

// CSCTRL bits.
const (
	CS0Enable uint32 = 1 << 0
	CS1Enable uint32 = 1 << 1
	CS0Active uint32 = 1 << 4
	CS1Active uint32 = 1 << 5
)

const (
	// srClearable are the SR bits a guest may clear by writing a 1.
	srClearable = StatusOVR | StatusUDR

	srReset = StatusTXE
)

var registerNames = map[Register]string{
	CR1:    "CR1",
	CR2:    "CR2",
	SR:     "SR",
	DR:     "DR",
	CSCTRL: "CSCTRL",
}

func (r Register) String() string {
	if n, ok := registerNames[r]; ok {
		return n
	}
	return fmt.Sprintf("0x%02x", uint32(r))
}

// Valid returns true if the register is one of the defined registers.
func (r Register) Valid() bool {
	_, ok := registerNames[r]
	return ok
}

// ParseRegister converts a register name, case insensitive, or a numeric
// offset into a Register.
//
// Numeric offsets are accepted even if they do not address a defined
// register, as the controller itself reports such accesses.
func ParseRegister(s string) (Register, error) {
	for r, n := range registerNames {
		if strings.EqualFold(n, s) {
			return r, nil
		}
	}
	o, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("can't parse register '%s'", s)
	}
	return Register(o), nil
}

// decodeCR1 returns the SPE and MSTR flags of a CR1 value.
func decodeCR1(v uint32) (spe, mstr bool) {
	return v&CR1SPE != 0, v&CR1MSTR != 0
}

// chipSelects are the CSCTRL enable and active request flags.
type chipSelects struct {
	cs0En  bool
	cs0Act bool
	cs1En  bool
	cs1Act bool
}

func decodeCSCTRL(v uint32) chipSelects {
	return chipSelects{
		cs0En:  v&CS0Enable != 0,
		cs0Act: v&CS0Active != 0,
		cs1En:  v&CS1Enable != 0,
		cs1Act: v&CS1Active != 0,
	}
}

// cs0 returns true if CS0 is effectively active.
func (cs chipSelects) cs0() bool {
	return cs.cs0En && cs.cs0Act
}

// cs1 returns true if CS1 is effectively active.
func (cs chipSelects) cs1() bool {
	return cs.cs1En && cs.cs1Act
}

// clearOnWrite applies a guest write to SR.
// Only OVR and UDR are affected, and only where the written bit is set.
func clearOnWrite(sr, v uint32) uint32 {
	return sr &^ (v & srClearable)
}

// irqPending returns true if any enabled interrupt condition is present in sr.
func irqPending(cr2, sr uint32) bool {
	switch {
	case cr2&CR2TXEIE != 0 && sr&StatusTXE != 0:
		return true
	case cr2&CR2RXNEIE != 0 && sr&StatusRXNE != 0:
		return true
	case cr2&CR2ERRIE != 0 && sr&(StatusUDR|StatusOVR) != 0:
		return true
	}
	return false
}
