// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/warthog618/spisim/spi/mcp3w0c"
)

func init() {
	adcCmd.Flags().BoolVarP(&adcOpts.Differential, "differential", "d", false, "read differential pairs")
	adcCmd.Flags().StringSliceVarP(&adcOpts.Inputs, "input", "i", nil, "set an ADC input, <ch>=<value>")
	rootCmd.AddCommand(adcCmd)
}

var (
	adcCmd = &cobra.Command{
		Use:     "adc <ch1>...",
		Short:   "Read channels from an emulated MCP3xxx ADC",
		Example: "  spisim --peer mcp3008 adc -i 0=512 -i 1=100 0 1",
		Args:    cobra.MinimumNArgs(1),
		RunE:    adc,
	}
	adcOpts = struct {
		Differential bool
		Inputs       []string
	}{}
)

func adc(cmd *cobra.Command, args []string) error {
	cc, err := parseChannels(args)
	if err != nil {
		return err
	}
	s, err := newSession()
	if err != nil {
		return err
	}
	defer s.close()
	if s.adc == nil {
		return errors.New("adc requires an mcp3008 or mcp3208 peer")
	}
	for _, in := range adcOpts.Inputs {
		ch, v, err := parseInput(in)
		if err != nil {
			return err
		}
		s.adc.SetChannel(ch, v)
	}
	width := uint(10)
	if rootOpts.Peer == "mcp3208" {
		width = 12
	}
	drv, err := mcp3w0c.New(s.c, rootOpts.CS, width)
	if err != nil {
		return err
	}
	for _, ch := range cc {
		var d uint16
		if adcOpts.Differential {
			d, err = drv.ReadDifferential(ch)
		} else {
			d, err = drv.Read(ch)
		}
		if err != nil {
			return err
		}
		fmt.Printf("ch%d=0x%04x\n", ch, d)
	}
	return s.save()
}

func parseChannels(args []string) ([]int, error) {
	cc := []int(nil)
	for _, arg := range args {
		ch, err := strconv.ParseUint(arg, 10, 8)
		if err != nil || ch > 7 {
			return nil, fmt.Errorf("can't parse channel '%s'", arg)
		}
		cc = append(cc, int(ch))
	}
	return cc, nil
}

func parseInput(arg string) (int, uint16, error) {
	aa := strings.Split(arg, "=")
	if len(aa) != 2 {
		return 0, 0, fmt.Errorf("invalid channel<->value mapping: %s", arg)
	}
	cc, err := parseChannels(aa[:1])
	if err != nil {
		return 0, 0, err
	}
	v, err := strconv.ParseUint(aa[1], 0, 16)
	if err != nil {
		return 0, 0, fmt.Errorf("can't parse value '%s'", aa[1])
	}
	return cc[0], uint16(v), nil
}
