// SPDX-License-Identifier: MIT
//
// Copyright © 2018 Kent Gibson <warthog618@gmail.com>.

package main

import (
	"fmt"

	"github.com/warthog618/config"
	"github.com/warthog618/config/blob"
	"github.com/warthog618/config/blob/decoder/json"
	"github.com/warthog618/config/dict"
	"github.com/warthog618/config/env"
	"github.com/warthog618/config/pflag"
	"github.com/warthog618/spisim"
	"github.com/warthog618/spisim/spi"
	"github.com/warthog618/spisim/spi/mcp3w0c"
)

// This example reads all eight channels from an emulated MCP3008 connected
// to a simulated controller. The chip select and the input levels are defined
// in loadConfig, but can be altered via configuration (env, flag or config file).
// Channel n is driven to n*step, clamped to the 10-bit range.
func main() {
	cfg := loadConfig()
	c := spisim.New()
	bus, err := spi.NewBus(c)
	if err != nil {
		panic(err)
	}
	defer bus.Close()
	cs := int(cfg.MustGet("cs").Int())
	step := int(cfg.MustGet("step").Int())
	peer := mcp3w0c.NewMCP3008Peer()
	for ch := 0; ch < peer.Channels(); ch++ {
		peer.SetChannel(ch, uint16(ch*step))
	}
	if err := bus.Connect(cs, peer); err != nil {
		panic(err)
	}
	adc, err := mcp3w0c.NewMCP3008(c, cs)
	if err != nil {
		panic(err)
	}
	for ch := 0; ch < 8; ch++ {
		d, err := adc.Read(ch)
		if err != nil {
			panic(err)
		}
		fmt.Printf("ch%d=0x%04x\n", ch, d)
	}
}

func loadConfig() *config.Config {
	defaultConfig := map[string]interface{}{
		"cs":   0,
		"step": 100,
	}
	def := dict.New(dict.WithMap(defaultConfig))
	shortFlags := map[byte]string{
		'c': "config-file",
	}
	// highest priority sources first - flags override environment
	cfg := config.New(
		pflag.New(pflag.WithShortFlags(shortFlags)),
		env.New(env.WithEnvPrefix("MCP3008_")),
		config.WithDefault(def))
	cfg.Append(
		blob.NewConfigFile(cfg, "config.file", "mcp3008.json", json.NewDecoder()))
	cfg = cfg.GetConfig("", config.WithMust)
	return cfg
}
