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

// Package channel defines the control channel Lens uses to reach the
// wearable display. Transports live in sub-packages.
package channel

import (
	"context"
	"errors"
)

// Status literals emitted by transports on their status stream.
const (
	StatusConnected    = "Connected"
	StatusDisconnected = "Disconnected"
)

var ErrClosed = errors.New("channel closed")

// MessageHandler receives every inbound line the device sends.
type MessageHandler interface {
	OnMessage(raw string)
}

// StatusHandler receives channel lifecycle messages.
type StatusHandler interface {
	OnStatus(message string)
}

// MessageHandlerFunc adapts a function to MessageHandler.
type MessageHandlerFunc func(raw string)

func (f MessageHandlerFunc) OnMessage(raw string) { f(raw) }

// StatusHandlerFunc adapts a function to StatusHandler.
type StatusHandlerFunc func(message string)

func (f StatusHandlerFunc) OnStatus(message string) { f(message) }

// Channel is the device control channel. SetRawMode and Send return once
// the transport has accepted the data; neither implies the device has
// acted on it.
type Channel interface {
	// SetRawMode switches the device between raw command execution and
	// its interactive prompt.
	SetRawMode(ctx context.Context, enable bool) error
	// Send transmits one command string.
	Send(ctx context.Context, command string) error
	// Subscribe registers the handler for inbound device messages,
	// replacing any previous one.
	Subscribe(h MessageHandler)
	// SubscribeStatus registers the handler for status messages,
	// replacing any previous one.
	SubscribeStatus(h StatusHandler)
	// Info describes the channel for logs and the status API.
	Info() string
	Close() error
}
