// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	setCmd.SetHelpTemplate(setCmd.HelpTemplate() + extendedSetHelp)
	rootCmd.AddCommand(setCmd)
}

var (
	setCmd = &cobra.Command{
		Use:     "set <reg1>=<value1>...",
		Short:   "Write a register or registers",
		Args:    cobra.MinimumNArgs(1),
		RunE:    set,
		Example: "  spisim set cr1=spe|mstr csctrl=cs0en|cs0act dr=0x5a",
	}
)

var extendedSetHelp = `
Registers:
  Registers may be identified by name (CR1, CR2, SR, DR, CSCTRL) or offset.

Values:
  Values may be numbers or '|' separated bit names, e.g. spe|mstr.
  Writes are applied in order, so a DR write transfers only if CR1 and
  CSCTRL have been set up by an earlier write or the state file.
`

func set(cmd *cobra.Command, args []string) error {
	oo, err := parseOps(args)
	if err != nil {
		return err
	}
	for _, o := range oo {
		if !o.Write {
			return fmt.Errorf("missing value for %s", o.Reg)
		}
	}
	s, err := newSession()
	if err != nil {
		return err
	}
	defer s.close()
	for _, o := range oo {
		s.c.Write(o.Reg, o.Value)
	}
	return s.save()
}
