// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/warthog618/spisim"
)

func init() {
	regsCmd.Flags().BoolVarP(&regsOpts.Short, "short", "s", false, "single line output format")
	rootCmd.AddCommand(regsCmd)
}

var (
	regsCmd = &cobra.Command{
		Use:   "regs",
		Short: "Display the controller registers and output lines",
		Long:  "Display the controller registers and output lines without triggering any read side effects.",
		Args:  cobra.NoArgs,
		RunE:  regs,
	}
	regsOpts = struct {
		Short bool
	}{}
)

func regs(cmd *cobra.Command, args []string) error {
	s, err := newSession()
	if err != nil {
		return err
	}
	defer s.close()
	if regsOpts.Short {
		printRegsShort(os.Stdout, s.c)
	} else {
		printRegs(os.Stdout, s.c)
	}
	return nil
}

// regValues returns the register values as held by the controller.
// DR is the last byte written, not the last byte received.
func regValues(c *spisim.Controller) []uint32 {
	ss := c.Snapshot()
	return []uint32{ss.CR1, ss.CR2, ss.SR, ss.DR, ss.CSCTRL}
}

func printRegs(w io.Writer, c *spisim.Controller) {
	vv := regValues(c)
	for i, r := range spisim.Registers {
		fmt.Fprintf(w, "0x%02x %-6s: 0x%08x\n", uint32(r), r, vv[i])
	}
	fmt.Fprintf(w, "rx data    : 0x%02x\n", c.RxData())
	for _, l := range []*spisim.Line{c.CS0(), c.CS1(), c.IRQ()} {
		fmt.Fprintf(w, "%-11s: %s\n", l.Name(), l.Level())
	}
}

func printRegsShort(w io.Writer, c *spisim.Controller) {
	for _, v := range regValues(c) {
		fmt.Fprintf(w, "%08x ", v)
	}
	fmt.Fprintf(w, "%02x %d %d %d\n", c.RxData(),
		level2Int(c.CS0().Level()),
		level2Int(c.CS1().Level()),
		level2Int(c.IRQ().Level()))
}

func level2Int(l spisim.Level) int {
	if l == spisim.Low {
		return 0
	}
	return 1
}
