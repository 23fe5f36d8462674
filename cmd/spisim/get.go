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
	getCmd.Flags().BoolVarP(&getOpts.Short, "short", "s", false, "single line output format")
	getCmd.SetHelpTemplate(getCmd.HelpTemplate() + extendedGetHelp)
	rootCmd.AddCommand(getCmd)
}

var (
	getCmd = &cobra.Command{
		Use:     "get <reg1>...",
		Short:   "Read a register or registers",
		Example: "  spisim get sr dr",
		Args:    cobra.MinimumNArgs(1),
		RunE:    get,
	}
	getOpts = struct {
		Short bool
	}{}
)

var extendedGetHelp = `
Registers:
  Registers may be identified by name (CR1, CR2, SR, DR, CSCTRL) or offset.

Note that reading DR clears RXNE and OVR.
`

func get(cmd *cobra.Command, args []string) error {
	rr := []spisim.Register(nil)
	for _, arg := range args {
		r, err := spisim.ParseRegister(arg)
		if err != nil {
			return err
		}
		rr = append(rr, r)
	}
	s, err := newSession()
	if err != nil {
		return err
	}
	defer s.close()
	vv := make([]uint32, len(rr))
	for i, r := range rr {
		vv[i] = s.c.Read(r)
	}
	if getOpts.Short {
		printValuesShort(os.Stdout, vv)
	} else {
		printValues(os.Stdout, rr, vv)
	}
	if err := s.save(); err != nil {
		logErr(cmd, err)
	}
	return nil
}

func printValues(w io.Writer, rr []spisim.Register, vv []uint32) {
	for i, r := range rr {
		fmt.Fprintf(w, "%-6s: 0x%08x\n", r, vv[i])
	}
}

func printValuesShort(w io.Writer, vv []uint32) {
	fmt.Fprintf(w, "%08x", vv[0])
	for _, v := range vv[1:] {
		fmt.Fprintf(w, " %08x", v)
	}
	fmt.Fprintln(w)
}
