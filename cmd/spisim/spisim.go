// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/warthog618/spisim"
	"github.com/warthog618/spisim/spi"
	"github.com/warthog618/spisim/spi/mcp3w0c"
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&rootOpts.Peer, "peer", "p", "loopback", "peer device (loopback|mcp3008|mcp3208|none)")
	rootCmd.PersistentFlags().IntVar(&rootOpts.CS, "cs", 0, "chip select the peer is connected to")
	rootCmd.PersistentFlags().StringVarP(&rootOpts.State, "state", "S", "", "file to load the controller state from and save it to")
	rootCmd.PersistentFlags().BoolVarP(&rootOpts.Verbose, "verbose", "v", false, "log transfers")
}

var rootCmd = &cobra.Command{
	Use:   "spisim",
	Short: "spisim is a utility to drive a simulated SPI controller",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
	Version: version,
}

var rootOpts = struct {
	Peer    string
	CS      int
	State   string
	Verbose bool
}{}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func logErr(cmd *cobra.Command, err error) {
	fmt.Fprintf(os.Stderr, "spisim %s: %s\n", cmd.Name(), err)
}

// session is a controller with its peer, and the state file it persists to.
type session struct {
	c     *spisim.Controller
	bus   *spi.Bus
	adc   *mcp3w0c.Peer
	state string
}

func newSession() (*session, error) {
	level := slog.LevelInfo
	if rootOpts.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	c := spisim.New(spisim.WithLogger(logger))
	s := &session{c: c, state: rootOpts.State}
	if rootOpts.Peer != "none" {
		var d spi.Device
		switch rootOpts.Peer {
		case "loopback":
			d = spi.Loopback{}
		case "mcp3008":
			s.adc = mcp3w0c.NewMCP3008Peer()
			d = s.adc
		case "mcp3208":
			s.adc = mcp3w0c.NewMCP3208Peer()
			d = s.adc
		default:
			return nil, fmt.Errorf("unknown peer '%s'", rootOpts.Peer)
		}
		bus, err := spi.NewBus(c)
		if err != nil {
			return nil, err
		}
		s.bus = bus
		if err := bus.Connect(rootOpts.CS, d); err != nil {
			bus.Close()
			return nil, errors.Wrapf(err, "cs %d", rootOpts.CS)
		}
	}
	if s.state == "" {
		return s, nil
	}
	f, err := os.Open(s.state)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		s.close()
		return nil, err
	}
	defer f.Close()
	if err := c.ReadSnapshot(f); err != nil {
		s.close()
		return nil, errors.Wrap(err, s.state)
	}
	return s, nil
}

// save writes the controller state back to the state file, if any.
func (s *session) save() error {
	if s.state == "" {
		return nil
	}
	f, err := os.Create(s.state)
	if err != nil {
		return err
	}
	if err := s.c.WriteSnapshot(f); err != nil {
		f.Close()
		return errors.Wrap(err, s.state)
	}
	return f.Close()
}

func (s *session) close() {
	if s.bus != nil {
		s.bus.Close()
	}
}

// op is a single register access.
// A write has a value, a read does not.
type op struct {
	Reg   spisim.Register
	Write bool
	Value uint32
}

func (o op) String() string {
	if o.Write {
		return fmt.Sprintf("%s=0x%08x", o.Reg, o.Value)
	}
	return o.Reg.String()
}

// parseOp parses "reg=value" as a write and "reg" as a read.
func parseOp(arg string) (op, error) {
	aa := strings.Split(arg, "=")
	if len(aa) > 2 {
		return op{}, fmt.Errorf("invalid register access: %s", arg)
	}
	r, err := spisim.ParseRegister(aa[0])
	if err != nil {
		return op{}, err
	}
	if len(aa) == 1 {
		return op{Reg: r}, nil
	}
	v, err := parseValue(aa[1])
	if err != nil {
		return op{}, err
	}
	return op{Reg: r, Write: true, Value: v}, nil
}

func parseOps(args []string) ([]op, error) {
	oo := []op(nil)
	for _, arg := range args {
		o, err := parseOp(arg)
		if err != nil {
			return nil, err
		}
		oo = append(oo, o)
	}
	return oo, nil
}

// parseValue parses a register value, or a '|' separated list of bit names
// and values, e.g. "spe|mstr".
func parseValue(arg string) (uint32, error) {
	var v uint32
	for _, f := range strings.Split(arg, "|") {
		if b, ok := bitNames[strings.ToLower(f)]; ok {
			v |= b
			continue
		}
		n, err := strconv.ParseUint(f, 0, 32)
		if err != nil {
			return 0, fmt.Errorf("can't parse value '%s'", f)
		}
		v |= uint32(n)
	}
	return v, nil
}

var bitNames = map[string]uint32{
	"spe":    spisim.CR1SPE,
	"mstr":   spisim.CR1MSTR,
	"txeie":  spisim.CR2TXEIE,
	"rxneie": spisim.CR2RXNEIE,
	"errie":  spisim.CR2ERRIE,
	"rxne":   spisim.StatusRXNE,
	"txe":    spisim.StatusTXE,
	"udr":    spisim.StatusUDR,
	"ovr":    spisim.StatusOVR,
	"bsy":    spisim.StatusBSY,
	"cs0en":  spisim.CS0Enable,
	"cs1en":  spisim.CS1Enable,
	"cs0act": spisim.CS0Active,
	"cs1act": spisim.CS1Active,
}
