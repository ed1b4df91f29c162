// Zaparoo Lens
// Copyright (c) 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Zaparoo Lens.
//
// Zaparoo Lens is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Zaparoo Lens is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Zaparoo Lens.  If not, see <http://www.gnu.org/licenses/>.

package config

import "time"

const (
	ChunkStrategyFixed    = "fixed"
	ChunkStrategyBoundary = "boundary"

	FormStatements = "statements"
	FormGrouped    = "grouped"

	DefaultPacing     = 2500 * time.Millisecond
	DefaultRetryDelay = 250 * time.Millisecond
)

// Display holds the layout of text on the wearable display. BlockSize is
// the number of characters per line and MaxLines the lines per screen.
type Display struct {
	ChunkStrategy string `toml:"chunk_strategy" validate:"omitempty,oneof=fixed boundary"`
	Form          string `toml:"form" validate:"omitempty,oneof=statements grouped"`
	Pacing        string `toml:"pacing,omitempty"`
	BlockSize     int    `toml:"block_size" validate:"gte=0"`
	MaxLines      int    `toml:"max_lines" validate:"gte=0"`
	GroupSize     int    `toml:"group_size" validate:"gte=0"`
	RowHeight     int    `toml:"row_height" validate:"gte=0"`
	Color         uint32 `toml:"color" validate:"lte=16777215"`
}

type Transmit struct {
	RetryDelay  string `toml:"retry_delay,omitempty"`
	SendRetries int    `toml:"send_retries" validate:"gte=0,lte=10"`
}

func (c *Instance) Display() Display {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Display
}

func (c *Instance) SetChunkStrategy(strategy string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Display.ChunkStrategy = strategy
}

func (c *Instance) SetDisplayForm(form string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Display.Form = form
}

//nolint:gocritic // config section copied by value
func (c *Instance) SetDisplay(d Display) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Display = d
}

// Pacing is the delay between two command batches, sized to the time the
// device needs to render one screen.
func (c *Instance) Pacing() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return parseDuration("display.pacing", c.vals.Display.Pacing, DefaultPacing)
}

func (c *Instance) SetTransmit(t Transmit) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Transmit = t
}

func (c *Instance) SendRetries() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Transmit.SendRetries
}

func (c *Instance) RetryDelay() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return parseDuration("transmit.retry_delay", c.vals.Transmit.RetryDelay, DefaultRetryDelay)
}
