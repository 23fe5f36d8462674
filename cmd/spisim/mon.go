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
	monCmd.Flags().BoolVarP(&monOpts.Quiet, "quiet", "q", false, "don't display register accesses")
	monCmd.Flags().BoolVarP(&monOpts.Sync, "sync", "s", false, "display the initial line levels")
	monCmd.SetHelpTemplate(monCmd.HelpTemplate() + extendedMonHelp)
	rootCmd.AddCommand(monCmd)
}

var extendedMonHelp = `
Accesses:
  <reg>=<value> writes the register, <reg> reads it.

Each access is displayed followed by any edges it caused on the
cs0, cs1 and irq lines.
`

var (
	monCmd = &cobra.Command{
		Use:     "mon <access1>...",
		Short:   "Monitor the output lines while accessing registers",
		Long:    `Apply a sequence of register accesses and print the resulting edges on the output lines to standard output.`,
		Example: "  spisim mon cr2=rxneie cr1=spe|mstr csctrl=cs0en|cs0act dr=0x5a dr",
		Args:    cobra.MinimumNArgs(1),
		RunE:    mon,
	}
	monOpts = struct {
		Quiet bool
		Sync  bool
	}{}
)

type event struct {
	Line  string
	Level spisim.Level
}

func (e event) String() string {
	edge := "rising"
	if e.Level == spisim.Low {
		edge = "falling"
	}
	return fmt.Sprintf("event: %-3s %s", e.Line, edge)
}

func mon(cmd *cobra.Command, args []string) error {
	oo, err := parseOps(args)
	if err != nil {
		return err
	}
	s, err := newSession()
	if err != nil {
		return err
	}
	defer s.close()
	runOps(os.Stdout, s.c, oo)
	return s.save()
}

// runOps applies the accesses to the controller, reporting each and the
// edges it caused.
func runOps(w io.Writer, c *spisim.Controller, oo []op) {
	lines := []*spisim.Line{c.CS0(), c.CS1(), c.IRQ()}
	levels := make([]spisim.Level, len(lines))
	for i, l := range lines {
		levels[i] = l.Level()
		if monOpts.Sync {
			fmt.Fprintf(w, "sync:  %s\n", l)
		}
	}
	for _, o := range oo {
		if o.Write {
			c.Write(o.Reg, o.Value)
			if !monOpts.Quiet {
				fmt.Fprintf(w, "write: %s\n", o)
			}
		} else {
			v := c.Read(o.Reg)
			if !monOpts.Quiet {
				fmt.Fprintf(w, "read:  %s=0x%08x\n", o.Reg, v)
			}
		}
		for i, l := range lines {
			level := l.Level()
			if level != levels[i] {
				fmt.Fprintln(w, event{Line: l.Name(), Level: level})
				levels[i] = level
			}
		}
	}
}
