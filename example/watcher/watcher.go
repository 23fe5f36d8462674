// SPDX-License-Identifier: MIT
//
// Copyright © 2017 Kent Gibson <warthog618@gmail.com>.

package main

import (
	"fmt"

	"github.com/warthog618/config"
	"github.com/warthog618/config/dict"
	"github.com/warthog618/config/env"
	"github.com/warthog618/config/pflag"
	"github.com/warthog618/spisim"
	"github.com/warthog618/spisim/spi"
)

// Watches the controller interrupt line while clocking bytes through a
// loopback peer, and reports when it changes state.
// Reads of DR are skipped every "skip" bytes to provoke overruns, which
// raise the error interrupt until DR is next read.
func main() {
	cfg := loadConfig()
	c := spisim.New()
	bus, err := spi.NewBus(c)
	if err != nil {
		panic(err)
	}
	defer bus.Close()
	if err := bus.Connect(0, spi.Loopback{}); err != nil {
		panic(err)
	}

	err = c.IRQ().Watch(spisim.EdgeBoth, func(l *spisim.Line) {
		fmt.Printf("IRQ is %v\n", l.Level())
	})
	if err != nil {
		panic(err)
	}
	defer c.IRQ().Unwatch()

	c.Write(spisim.CR1, spisim.CR1SPE|spisim.CR1MSTR)
	c.Write(spisim.CR2, spisim.CR2ERRIE)
	c.Write(spisim.CSCTRL, spisim.CS0Enable|spisim.CS0Active)
	n := int(cfg.MustGet("count").Int())
	skip := int(cfg.MustGet("skip").Int())
	for i := 0; i < n; i++ {
		c.Write(spisim.DR, uint32(i))
		if skip > 0 && i%skip == 0 {
			continue
		}
		fmt.Printf("rx 0x%02x, sr 0x%02x\n", c.Read(spisim.DR), c.Read(spisim.SR))
	}
}

func loadConfig() *config.Config {
	defaultConfig := map[string]interface{}{
		"count": 8,
		"skip":  3,
	}
	def := dict.New(dict.WithMap(defaultConfig))
	cfg := config.New(
		pflag.New(),
		env.New(env.WithEnvPrefix("WATCHER_")),
		config.WithDefault(def))
	return cfg.GetConfig("", config.WithMust)
}
