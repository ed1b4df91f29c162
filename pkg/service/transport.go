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

package service

import (
	"fmt"

	"github.com/ZaparooProject/zaparoo-lens/pkg/channel"
	"github.com/ZaparooProject/zaparoo-lens/pkg/channel/mqttbridge"
	"github.com/ZaparooProject/zaparoo-lens/pkg/channel/serialrepl"
	"github.com/ZaparooProject/zaparoo-lens/pkg/config"
)

// Transport is a channel that has to be opened before use.
type Transport interface {
	channel.Channel
	Open() error
}

// TransportFactory builds the transport for a channel config.
type TransportFactory func(ch config.Channel) (Transport, error)

// DefaultTransportFactory picks the transport by driver name.
func DefaultTransportFactory(ch config.Channel) (Transport, error) {
	switch ch.Driver {
	case config.ChannelDriverSerial, "":
		return serialrepl.New(ch.Path, ch.BaudRate), nil
	case config.ChannelDriverMQTT:
		t, err := mqttbridge.New(ch.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to create mqtt transport: %w", err)
		}
		return t, nil
	default:
		return nil, fmt.Errorf("unknown channel driver: %s", ch.Driver)
	}
}
