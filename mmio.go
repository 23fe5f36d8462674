// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

package spisim

import (
	"sync"

	"github.com/pkg/errors"
)

// MMIOSize is the size of the controller register window.
const MMIOSize = 0x1000

// MMIO maps a Controller into a host address space.
//
// Accesses must be 32 bits wide and 32-bit aligned.
// Offsets inside the window that are not registers are passed to the
// controller, which reports them and reads them as 0.
type MMIO struct {
	// The lock serialises register accesses, as the Controller itself
	// is not safe for concurrent use.
	mu   sync.Mutex
	base uint64
	c    *Controller
}

var (
	// ErrAccessSize indicates an access that is not 32 bits wide.
	ErrAccessSize = errors.New("invalid access size")

	// ErrUnaligned indicates an access that is not 32-bit aligned.
	ErrUnaligned = errors.New("unaligned access")

	// ErrOutOfRange indicates an access outside the window.
	ErrOutOfRange = errors.New("address out of range")
)

// NewMMIO maps the controller at the given base address.
func NewMMIO(base uint64, c *Controller) *MMIO {
	return &MMIO{base: base, c: c}
}

// Base returns the base address of the window.
func (m *MMIO) Base() uint64 {
	return m.base
}

// Controller returns the mapped controller.
func (m *MMIO) Controller() *Controller {
	return m.c
}

// Read reads the register at addr.
func (m *MMIO) Read(addr uint64, size int) (uint64, error) {
	r, err := m.offset(addr, size)
	if err != nil {
		return 0, errors.Wrapf(err, "read 0x%x", addr)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return uint64(m.c.Read(r)), nil
}

// Write writes the register at addr.
// Only the low 32 bits of v are significant.
func (m *MMIO) Write(addr, v uint64, size int) error {
	r, err := m.offset(addr, size)
	if err != nil {
		return errors.Wrapf(err, "write 0x%x", addr)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.c.Write(r, uint32(v))
	return nil
}

// Reset resets the mapped controller.
func (m *MMIO) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.c.Reset()
}

func (m *MMIO) offset(addr uint64, size int) (Register, error) {
	if size != 4 {
		return 0, ErrAccessSize
	}
	if addr < m.base || addr-m.base >= MMIOSize {
		return 0, ErrOutOfRange
	}
	if addr&3 != 0 {
		return 0, ErrUnaligned
	}
	return Register(addr - m.base), nil
}
