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

package mocks

import (
	"context"
	"fmt"

	"github.com/ZaparooProject/zaparoo-lens/pkg/channel"
	"github.com/stretchr/testify/mock"
)

// MockChannel is a mock implementation of channel.Channel using
// testify/mock. Subscribed handlers are stored so tests can drive inbound
// traffic with Emit and EmitStatus.
type MockChannel struct {
	mock.Mock
	handlers channel.Handlers
}

var _ channel.Channel = (*MockChannel)(nil)

func (m *MockChannel) SetRawMode(ctx context.Context, enable bool) error {
	args := m.Called(ctx, enable)
	if err := args.Error(0); err != nil {
		return fmt.Errorf("mock operation failed: %w", err)
	}
	return nil
}

func (m *MockChannel) Send(ctx context.Context, command string) error {
	args := m.Called(ctx, command)
	if err := args.Error(0); err != nil {
		return fmt.Errorf("mock operation failed: %w", err)
	}
	return nil
}

func (m *MockChannel) Subscribe(h channel.MessageHandler) {
	m.handlers.SetMessage(h)
}

func (m *MockChannel) SubscribeStatus(h channel.StatusHandler) {
	m.handlers.SetStatus(h)
}

func (*MockChannel) Info() string {
	return "mock"
}

func (m *MockChannel) Close() error {
	args := m.Called()
	if err := args.Error(0); err != nil {
		return fmt.Errorf("mock operation failed: %w", err)
	}
	return nil
}

// Emit delivers raw to the subscribed message handler.
func (m *MockChannel) Emit(raw string) {
	m.handlers.Message(raw)
}

// EmitStatus delivers message to the subscribed status handler.
func (m *MockChannel) EmitStatus(message string) {
	m.handlers.Status(message)
}

// NewMockChannel returns a mock channel that accepts every call.
func NewMockChannel() *MockChannel {
	m := &MockChannel{}
	m.On("SetRawMode", mock.Anything, mock.Anything).Return(nil).Maybe()
	m.On("Send", mock.Anything, mock.Anything).Return(nil).Maybe()
	m.On("Close").Return(nil).Maybe()
	return m
}

// MockTransport is a MockChannel that can be opened. Open reports the
// "Connected" status literal unless OpenError is set.
type MockTransport struct {
	*MockChannel
	OpenError error
}

func (m *MockTransport) Open() error {
	if m.OpenError != nil {
		return m.OpenError
	}
	m.EmitStatus("Connected")
	return nil
}
