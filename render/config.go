// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"fmt"
	"io"

	"github.com/pelletier/go-toml/v2"
)

// Config is the file form of the renderer options.
//
//	devices = [{ platform = 1, device = 0 }, { platform = 0, device = 0 }]
//	grid = [64, 2]
//	iters_per_thread = 256
//	lock = false
//
//	[output]
//	channels = 4
//	transparent = true
//	early_clip = false
//
// Zero values keep the defaults.
type Config struct {
	Devices        []Selection `toml:"devices"`
	Grid           [2]int      `toml:"grid"`
	ItersPerThread int         `toml:"iters_per_thread"`
	SubBatch       int         `toml:"sub_batch"`
	Lock           bool        `toml:"lock"`
	Seed           uint64      `toml:"seed"`
	Workers        int         `toml:"workers"`

	Output OutputConfig `toml:"output"`
}

// OutputConfig selects the image format.
type OutputConfig struct {
	Channels    int  `toml:"channels"`
	Transparent bool `toml:"transparent"`
	EarlyClip   bool `toml:"early_clip"`
}

// LoadConfig decodes a TOML configuration. Unknown keys are an error.
func LoadConfig(r io.Reader) (*Config, error) {
	var c Config
	if err := toml.NewDecoder(r).DisallowUnknownFields().Decode(&c); err != nil {
		return nil, fmt.Errorf("render: config: %w", err)
	}
	if c.Output.Channels != 0 && c.Output.Channels != 3 && c.Output.Channels != 4 {
		return nil, fmt.Errorf("render: config: output.channels = %d, want 3 or 4", c.Output.Channels)
	}
	return &c, nil
}

// Options returns the options the configuration sets.
func (c *Config) Options() []Option {
	opts := []Option{
		WithGrid(c.Grid[0], c.Grid[1]),
		WithItersPerThread(c.ItersPerThread),
		WithSubBatch(c.SubBatch),
		WithLock(c.Lock),
		WithWorkers(c.Workers),
		WithTransparent(c.Output.Transparent),
		WithEarlyClip(c.Output.EarlyClip),
	}
	if c.Output.Channels != 0 {
		opts = append(opts, WithChannels(c.Output.Channels))
	}
	if c.Seed != 0 {
		opts = append(opts, WithSeed(c.Seed))
	}
	return opts
}
