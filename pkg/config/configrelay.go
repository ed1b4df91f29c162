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
	DefaultLivenessTimeout   = 30 * time.Second
	DefaultHeartbeatInterval = 10 * time.Second
)

// Relay holds the exact phrases the device sends to switch direction.
type Relay struct {
	TriggerA string `toml:"trigger_a" validate:"required,nefield=TriggerB"`
	TriggerB string `toml:"trigger_b" validate:"required"`
}

type Connection struct {
	ConnectedStatus    string `toml:"connected_status" validate:"required"`
	DisconnectedStatus string `toml:"disconnected_status,omitempty"`
	LivenessTimeout    string `toml:"liveness_timeout,omitempty"`
	HeartbeatInterval  string `toml:"heartbeat_interval,omitempty"`
	HeartbeatCommand   string `toml:"heartbeat_command,omitempty"`
}

// DirectionProfile is everything that changes when the translation
// direction flips.
type DirectionProfile struct {
	InputLanguage  string `toml:"input_language" validate:"required"`
	OutputLanguage string `toml:"output_language" validate:"required"`
	Icon           string `toml:"icon,omitempty"`
	Context        string `toml:"context,omitempty,multiline"`
}

type Directions struct {
	A DirectionProfile `toml:"a"`
	B DirectionProfile `toml:"b"`
}

func (c *Instance) Relay() Relay {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Relay
}

func (c *Instance) Directions() Directions {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Directions
}

func (c *Instance) SetDirections(d Directions) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Directions = d
}

func (c *Instance) Connection() Connection {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Connection
}

// LivenessTimeout is how long a connected device may stay silent before it
// is considered gone. Zero disables the check.
func (c *Instance) LivenessTimeout() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return parseDuration(
		"connection.liveness_timeout",
		c.vals.Connection.LivenessTimeout,
		DefaultLivenessTimeout,
	)
}

// HeartbeatInterval is how often an idle device is probed. Zero disables
// heartbeats.
func (c *Instance) HeartbeatInterval() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return parseDuration(
		"connection.heartbeat_interval",
		c.vals.Connection.HeartbeatInterval,
		DefaultHeartbeatInterval,
	)
}
