// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

// Test suite for the controller.
package spisim_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warthog618/spisim"
)

// peer records the bytes clocked out and returns a canned reply.
type peer struct {
	tx    []uint8
	reply []uint8
}

func (p *peer) Exchange(tx uint8) uint8 {
	p.tx = append(p.tx, tx)
	if len(p.reply) == 0 {
		return 0
	}
	rx := p.reply[0]
	p.reply = p.reply[1:]
	return rx
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func setup(reply ...uint8) (*spisim.Controller, *peer) {
	p := &peer{reply: reply}
	c := spisim.New(spisim.WithExchanger(p), spisim.WithLogger(quietLogger()))
	return c, p
}

// selectCS0 puts the controller in a state where a DR write transfers.
func selectCS0(c *spisim.Controller) {
	c.Write(spisim.CR1, spisim.CR1SPE|spisim.CR1MSTR)
	c.Write(spisim.CSCTRL, spisim.CS0Enable|spisim.CS0Active)
}

func TestNew(t *testing.T) {
	c, _ := setup()
	assert.Equal(t, uint32(0), c.Read(spisim.CR1))
	assert.Equal(t, uint32(0), c.Read(spisim.CR2))
	assert.Equal(t, spisim.StatusTXE, c.Read(spisim.SR))
	assert.Equal(t, uint32(0), c.Read(spisim.CSCTRL))
	assert.Equal(t, spisim.High, c.CS0().Level())
	assert.Equal(t, spisim.High, c.CS1().Level())
	assert.Equal(t, spisim.Low, c.IRQ().Level())
}

func TestReset(t *testing.T) {
	c, _ := setup(0x11, 0x22)
	selectCS0(c)
	c.Write(spisim.CR2, spisim.CR2RXNEIE|spisim.CR2ERRIE)
	c.Write(spisim.DR, 0x01)
	c.Write(spisim.DR, 0x02)
	require.Equal(t, spisim.High, c.IRQ().Level())
	require.Equal(t, spisim.Low, c.CS0().Level())

	c.Reset()
	assert.Equal(t, uint32(0), c.Read(spisim.CR1))
	assert.Equal(t, uint32(0), c.Read(spisim.CR2))
	assert.Equal(t, spisim.StatusTXE, c.Read(spisim.SR))
	assert.Equal(t, uint32(0), c.Read(spisim.CSCTRL))
	assert.Equal(t, uint8(0), c.RxData())
	assert.Equal(t, spisim.High, c.CS0().Level())
	assert.Equal(t, spisim.High, c.CS1().Level())
	assert.Equal(t, spisim.Low, c.IRQ().Level())
	assert.Equal(t, uint32(0), c.Snapshot().DR)

	// derived flags were reset with the registers
	c.Write(spisim.DR, 0x03)
	assert.Equal(t, spisim.StatusTXE, c.Read(spisim.SR))
}

func TestRegisterReadback(t *testing.T) {
	c, _ := setup()
	c.Write(spisim.CR1, 0xdeadbeef)
	assert.Equal(t, uint32(0xdeadbeef), c.Read(spisim.CR1))
	c.Write(spisim.CR2, 0x12345678)
	assert.Equal(t, uint32(0x12345678), c.Read(spisim.CR2))
	c.Write(spisim.CSCTRL, 0xffffffcc)
	assert.Equal(t, uint32(0xffffffcc), c.Read(spisim.CSCTRL))
}

func TestSRWriteOnlyClears(t *testing.T) {
	c, _ := setup()
	c.Write(spisim.SR, 0xffffffff)
	assert.Equal(t, spisim.StatusTXE, c.Read(spisim.SR))
	c.Write(spisim.SR, 0)
	assert.Equal(t, spisim.StatusTXE, c.Read(spisim.SR))
}

func TestSRWriteClearsOVR(t *testing.T) {
	c, _ := setup(0x01, 0x02)
	selectCS0(c)
	c.Write(spisim.DR, 0xa0)
	c.Write(spisim.DR, 0xa1)
	require.Equal(t, spisim.StatusOVR, c.Read(spisim.SR)&spisim.StatusOVR)
	c.Write(spisim.CR2, spisim.CR2ERRIE)
	require.Equal(t, spisim.High, c.IRQ().Level())

	c.Write(spisim.SR, spisim.StatusRXNE|spisim.StatusTXE)
	assert.Equal(t, spisim.StatusOVR, c.Read(spisim.SR)&spisim.StatusOVR)
	c.Write(spisim.SR, spisim.StatusOVR)
	assert.Equal(t, spisim.StatusRXNE|spisim.StatusTXE, c.Read(spisim.SR))
	assert.Equal(t, spisim.Low, c.IRQ().Level())
	// unread byte survives the clear
	assert.Equal(t, uint32(0x02), c.Read(spisim.DR))
}

func TestSRWriteClearsUDR(t *testing.T) {
	c, _ := setup()
	s := c.Snapshot()
	s.SR = spisim.StatusTXE | spisim.StatusUDR
	s.CR2 = spisim.CR2ERRIE
	require.Nil(t, c.Restore(s))
	require.Equal(t, spisim.High, c.IRQ().Level())

	c.Write(spisim.SR, spisim.StatusOVR)
	assert.Equal(t, spisim.StatusTXE|spisim.StatusUDR, c.Read(spisim.SR))
	c.Write(spisim.SR, spisim.StatusUDR)
	assert.Equal(t, spisim.StatusTXE, c.Read(spisim.SR))
	assert.Equal(t, spisim.Low, c.IRQ().Level())
}

func TestCSDerivation(t *testing.T) {
	c, _ := setup()
	bits := []uint32{spisim.CS0Enable, spisim.CS1Enable, spisim.CS0Active, spisim.CS1Active}
	for n := 0; n < 16; n++ {
		v := uint32(0)
		for i, b := range bits {
			if n&(1<<uint(i)) != 0 {
				v |= b
			}
		}
		c.Write(spisim.CSCTRL, v)
		cs0 := v&spisim.CS0Enable != 0 && v&spisim.CS0Active != 0
		cs1 := v&spisim.CS1Enable != 0 && v&spisim.CS1Active != 0
		assert.Equal(t, spisim.Level(!cs0), c.CS0().Level(), "csctrl 0x%02x", v)
		assert.Equal(t, spisim.Level(!cs1), c.CS1().Level(), "csctrl 0x%02x", v)
	}
}

func TestTransferGating(t *testing.T) {
	patterns := []struct {
		name   string
		cr1    uint32
		csctrl uint32
	}{
		{"disabled", spisim.CR1MSTR, spisim.CS0Enable | spisim.CS0Active},
		{"slave", spisim.CR1SPE, spisim.CS0Enable | spisim.CS0Active},
		{"neither", spisim.CR1SPE | spisim.CR1MSTR, 0},
		{"enabled not active", spisim.CR1SPE | spisim.CR1MSTR, spisim.CS0Enable | spisim.CS1Enable},
		{"active not enabled", spisim.CR1SPE | spisim.CR1MSTR, spisim.CS0Active | spisim.CS1Active},
		{"both", spisim.CR1SPE | spisim.CR1MSTR,
			spisim.CS0Enable | spisim.CS0Active | spisim.CS1Enable | spisim.CS1Active},
	}
	for _, tc := range patterns {
		c, p := setup(0xa3)
		c.Write(spisim.CR1, tc.cr1)
		c.Write(spisim.CSCTRL, tc.csctrl)
		c.Write(spisim.DR, 0x15a)
		assert.Equal(t, spisim.StatusTXE, c.Read(spisim.SR), tc.name)
		assert.Empty(t, p.tx, tc.name)
		assert.Equal(t, uint32(0x5a), c.Snapshot().DR, tc.name)
	}
}

func TestTransfer(t *testing.T) {
	c, p := setup(0xa3)
	selectCS0(c)
	c.Write(spisim.CR2, spisim.CR2RXNEIE)
	require.Equal(t, spisim.Low, c.IRQ().Level())

	c.Write(spisim.DR, 0x5a)
	assert.Equal(t, []uint8{0x5a}, p.tx)
	assert.Equal(t, spisim.StatusRXNE|spisim.StatusTXE, c.Read(spisim.SR))
	assert.Equal(t, uint8(0xa3), c.RxData())
	assert.Equal(t, spisim.High, c.IRQ().Level())
}

func TestTransferCS1(t *testing.T) {
	c, p := setup(0x3c)
	c.Write(spisim.CR1, spisim.CR1SPE|spisim.CR1MSTR)
	// CS0 requested but not enabled
	c.Write(spisim.CSCTRL, spisim.CS0Active|spisim.CS1Enable|spisim.CS1Active)
	c.Write(spisim.DR, 0xc3)
	assert.Equal(t, []uint8{0xc3}, p.tx)
	assert.Equal(t, uint32(0x3c), c.Read(spisim.DR))
}

func TestTransferLowByte(t *testing.T) {
	c, p := setup()
	selectCS0(c)
	c.Write(spisim.DR, 0xcafe12)
	assert.Equal(t, []uint8{0x12}, p.tx)
}

func TestTransferBusy(t *testing.T) {
	var c *spisim.Controller
	var sr uint32
	c = spisim.New(
		spisim.WithLogger(quietLogger()),
		spisim.WithExchanger(spisim.ExchangerFunc(func(tx uint8) uint8 {
			sr = c.Snapshot().SR
			return ^tx
		})))
	selectCS0(c)
	c.Write(spisim.DR, 0x0f)
	assert.Equal(t, spisim.StatusBSY, sr)
	assert.Equal(t, spisim.StatusRXNE|spisim.StatusTXE, c.Read(spisim.SR))
	assert.Equal(t, uint8(0xf0), c.RxData())
}

func TestOverrun(t *testing.T) {
	c, _ := setup(0x11, 0x22)
	selectCS0(c)
	c.Write(spisim.DR, 0x01)
	assert.Equal(t, uint32(0), c.Read(spisim.SR)&spisim.StatusOVR)
	c.Write(spisim.DR, 0x02)
	assert.Equal(t, spisim.StatusRXNE|spisim.StatusTXE|spisim.StatusOVR, c.Read(spisim.SR))

	assert.Equal(t, uint32(0x22), c.Read(spisim.DR))
	assert.Equal(t, spisim.StatusTXE, c.Read(spisim.SR))
}

func TestOverrunInterrupt(t *testing.T) {
	c, _ := setup(0x11, 0x22)
	selectCS0(c)
	c.Write(spisim.CR2, spisim.CR2ERRIE)
	c.Write(spisim.DR, 0x01)
	assert.Equal(t, spisim.Low, c.IRQ().Level())
	c.Write(spisim.DR, 0x02)
	assert.Equal(t, spisim.High, c.IRQ().Level())
	c.Read(spisim.DR)
	assert.Equal(t, spisim.Low, c.IRQ().Level())
}

func TestNoOverrunAfterRead(t *testing.T) {
	c, _ := setup(0x11, 0x22)
	selectCS0(c)
	c.Write(spisim.DR, 0x01)
	assert.Equal(t, uint32(0x11), c.Read(spisim.DR))
	c.Write(spisim.DR, 0x02)
	assert.Equal(t, spisim.StatusRXNE|spisim.StatusTXE, c.Read(spisim.SR))
}

func TestDRReadTwice(t *testing.T) {
	c, _ := setup(0x11, 0x22)
	selectCS0(c)
	c.Write(spisim.CR2, spisim.CR2RXNEIE|spisim.CR2ERRIE)
	c.Write(spisim.DR, 0x01)
	c.Write(spisim.DR, 0x02)
	require.Equal(t, spisim.High, c.IRQ().Level())

	assert.Equal(t, uint32(0x22), c.Read(spisim.DR))
	assert.Equal(t, spisim.StatusTXE, c.Read(spisim.SR))
	assert.Equal(t, spisim.Low, c.IRQ().Level())

	assert.Equal(t, uint32(0x22), c.Read(spisim.DR))
	assert.Equal(t, spisim.StatusTXE, c.Read(spisim.SR))
	assert.Equal(t, spisim.Low, c.IRQ().Level())
	assert.Equal(t, uint8(0x22), c.RxData())
}

func TestDRReadKeepsTXE(t *testing.T) {
	c, _ := setup()
	c.Write(spisim.CR2, spisim.CR2TXEIE)
	assert.Equal(t, spisim.High, c.IRQ().Level())
	c.Read(spisim.DR)
	assert.Equal(t, spisim.StatusTXE, c.Read(spisim.SR))
	assert.Equal(t, spisim.High, c.IRQ().Level())
}

func TestInterruptMasking(t *testing.T) {
	c, _ := setup()
	s := c.Snapshot()
	s.SR = spisim.StatusRXNE | spisim.StatusTXE | spisim.StatusUDR | spisim.StatusOVR | spisim.StatusBSY
	require.Nil(t, c.Restore(s))
	assert.Equal(t, spisim.Low, c.IRQ().Level())

	patterns := []struct {
		name string
		ie   uint32
		sr   uint32
	}{
		{"txe", spisim.CR2TXEIE, spisim.StatusTXE},
		{"rxne", spisim.CR2RXNEIE, spisim.StatusRXNE},
		{"udr", spisim.CR2ERRIE, spisim.StatusUDR},
		{"ovr", spisim.CR2ERRIE, spisim.StatusOVR},
	}
	for _, p := range patterns {
		s := c.Snapshot()
		s.CR2 = 0
		s.SR = p.sr
		require.Nil(t, c.Restore(s))
		assert.Equal(t, spisim.Low, c.IRQ().Level(), p.name)
		c.Write(spisim.CR2, p.ie)
		assert.Equal(t, spisim.High, c.IRQ().Level(), p.name)
		c.Write(spisim.CR2, 0)
		assert.Equal(t, spisim.Low, c.IRQ().Level(), p.name)
		assert.Equal(t, p.sr, c.Read(spisim.SR), p.name)
	}
}

func TestCR1WriteLeavesIRQ(t *testing.T) {
	c, _ := setup()
	c.Write(spisim.CR2, spisim.CR2TXEIE)
	c.Write(spisim.CR1, spisim.CR1SPE|spisim.CR1MSTR)
	assert.Equal(t, spisim.High, c.IRQ().Level())
}

func TestInvalidAccess(t *testing.T) {
	var buf bytes.Buffer
	c := spisim.New(spisim.WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))
	before := c.Snapshot()

	assert.Equal(t, uint32(0), c.Read(spisim.Register(0x14)))
	assert.Contains(t, buf.String(), "bad read offset")
	assert.Contains(t, buf.String(), "0x14")

	buf.Reset()
	c.Write(spisim.Register(0x0800), 0xffffffff)
	assert.Contains(t, buf.String(), "bad write offset")
	assert.Contains(t, buf.String(), "0xffffffff")
	assert.Equal(t, before, c.Snapshot())
}

func TestUnconnected(t *testing.T) {
	c := spisim.New(spisim.WithLogger(quietLogger()))
	selectCS0(c)
	c.Write(spisim.DR, 0x5a)
	assert.Equal(t, spisim.StatusRXNE|spisim.StatusTXE, c.Read(spisim.SR))
	assert.Equal(t, uint32(0), c.Read(spisim.DR))
}

func TestConnect(t *testing.T) {
	c := spisim.New(spisim.WithLogger(quietLogger()))
	p := &peer{reply: []uint8{0x77}}
	c.Connect(p)
	selectCS0(c)
	c.Write(spisim.DR, 0x5a)
	assert.Equal(t, uint32(0x77), c.Read(spisim.DR))
	c.Connect(nil)
	c.Write(spisim.DR, 0x5b)
	assert.Equal(t, uint32(0), c.Read(spisim.DR))
	assert.Equal(t, []uint8{0x5a}, p.tx)
}
