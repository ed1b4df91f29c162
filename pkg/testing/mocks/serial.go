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
	"bytes"
	"errors"
	"time"

	"github.com/ZaparooProject/zaparoo-lens/pkg/helpers/syncutil"
)

var ErrPortClosed = errors.New("port closed")

// MockSerialPort is an in-memory serial port. Data passed to Feed is
// returned by Read; everything written is recorded. When ExecuteReply is
// set it is fed back after every write that contains a Ctrl-D, the way a
// raw REPL answers an executed command.
type MockSerialPort struct {
	incoming     chan []byte
	done         chan struct{}
	readErr      error
	WriteError   error
	CloseError   error
	TimeoutErr   error
	ExecuteReply string
	pending      []byte
	written    []byte
	mu         syncutil.RWMutex
	closed     bool
}

// NewMockSerialPort creates a new mock serial port for testing.
func NewMockSerialPort() *MockSerialPort {
	return &MockSerialPort{
		incoming: make(chan []byte, 64),
		done:     make(chan struct{}),
	}
}

// Feed queues data for a later Read.
func (m *MockSerialPort) Feed(data string) {
	m.incoming <- []byte(data)
}

// FailReads makes every following Read return err.
func (m *MockSerialPort) FailReads(err error) {
	m.mu.Lock()
	m.readErr = err
	m.mu.Unlock()
}

// Read returns fed data, or nothing after a short wait to mimic a read
// timeout.
func (m *MockSerialPort) Read(p []byte) (int, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return 0, ErrPortClosed
	}
	if m.readErr != nil {
		err := m.readErr
		m.mu.Unlock()
		return 0, err
	}
	if len(m.pending) > 0 {
		n := copy(p, m.pending)
		m.pending = m.pending[n:]
		m.mu.Unlock()
		return n, nil
	}
	m.mu.Unlock()

	select {
	case data := <-m.incoming:
		m.mu.Lock()
		defer m.mu.Unlock()
		n := copy(p, data)
		m.pending = append(m.pending, data[n:]...)
		return n, nil
	case <-m.done:
		return 0, ErrPortClosed
	case <-time.After(10 * time.Millisecond):
		return 0, nil
	}
}

func (m *MockSerialPort) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, ErrPortClosed
	}
	if m.WriteError != nil {
		return 0, m.WriteError
	}
	m.written = append(m.written, p...)
	if m.ExecuteReply != "" && bytes.IndexByte(p, 0x04) >= 0 {
		select {
		case m.incoming <- []byte(m.ExecuteReply):
		default:
		}
	}
	return len(p), nil
}

// Written returns a copy of every byte written so far.
func (m *MockSerialPort) Written() []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]byte, len(m.written))
	copy(out, m.written)
	return out
}

func (m *MockSerialPort) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.done)
	}
	return m.CloseError
}

func (m *MockSerialPort) SetReadTimeout(_ time.Duration) error {
	return m.TimeoutErr
}

// IsClosed returns true if the port has been closed (thread-safe).
func (m *MockSerialPort) IsClosed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.closed
}
