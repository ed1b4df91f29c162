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

import "fmt"

const (
	ChannelDriverSerial = "serial"
	ChannelDriverMQTT   = "mqtt"
)

// Channel selects the transport used to reach the display. Path is a
// serial device for the serial driver and "broker:port/topic" for MQTT.
type Channel struct {
	Driver   string `toml:"driver" validate:"oneof=serial mqtt"`
	Path     string `toml:"path" validate:"required"`
	BaudRate int    `toml:"baud_rate,omitempty" validate:"gte=0"`
}

func (ch Channel) ConnectionString() string {
	return fmt.Sprintf("%s:%s", ch.Driver, ch.Path)
}

func (c *Instance) Channel() Channel {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Channel
}

func (c *Instance) SetChannel(ch Channel) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Channel = ch
}
