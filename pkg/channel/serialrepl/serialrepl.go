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

// Package serialrepl drives a display device over a USB serial line using
// the MicroPython raw REPL.
package serialrepl

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ZaparooProject/zaparoo-lens/pkg/channel"
	"github.com/ZaparooProject/zaparoo-lens/pkg/helpers/syncutil"
	"github.com/rs/zerolog/log"
	"go.bug.st/serial"
)

// Raw REPL control bytes.
const (
	CtrlA = 0x01 // enter raw REPL
	CtrlB = 0x02 // leave raw REPL
	CtrlC = 0x03 // interrupt running program
	CtrlD = 0x04 // execute buffered command
)

const (
	DefaultBaudRate = 115200
	ReadTimeout     = 100 * time.Millisecond
	// WriteChunkSize bounds a single port write; small USB CDC buffers on
	// the device drop bytes on larger writes.
	WriteChunkSize = 256
	// MaxLineBytes bounds buffered device output; longer output is
	// dispatched in pieces.
	MaxLineBytes = 4096
	okPrompt     = "OK"
)

// SerialPort defines the serial port operations used by the transport.
type SerialPort interface {
	Read(p []byte) (n int, err error)
	Write(p []byte) (n int, err error)
	Close() error
	SetReadTimeout(t time.Duration) error
}

// SerialPortFactory creates a serial port connection.
type SerialPortFactory func(path string, mode *serial.Mode) (SerialPort, error)

// DefaultSerialPortFactory opens real serial ports.
func DefaultSerialPortFactory(path string, mode *serial.Mode) (SerialPort, error) {
	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port: %w", err)
	}
	return port, nil
}

// Transport is a channel.Channel backed by a serial port.
type Transport struct {
	port        SerialPort
	portFactory SerialPortFactory
	done        chan struct{}
	path        string
	handlers    channel.Handlers
	baudRate    int
	writeMu     syncutil.Mutex
	closeOnce   sync.Once
	closed      atomic.Bool
	awaitOK     atomic.Bool
	skipStat    bool
}

var _ channel.Channel = (*Transport)(nil)

// New returns an unopened transport for the device at path.
func New(path string, baudRate int) *Transport {
	if baudRate <= 0 {
		baudRate = DefaultBaudRate
	}
	return &Transport{
		path:        path,
		baudRate:    baudRate,
		portFactory: DefaultSerialPortFactory,
		done:        make(chan struct{}),
	}
}

// NewWithFactory returns a transport that opens its port through factory.
func NewWithFactory(path string, baudRate int, factory SerialPortFactory) *Transport {
	t := New(path, baudRate)
	t.portFactory = factory
	t.skipStat = true
	return t
}

// Open opens the port, starts the read loop and emits the connected status.
func (t *Transport) Open() error {
	if t.path == "" {
		return errors.New("serial path is empty")
	}

	if !t.skipStat && runtime.GOOS != "windows" {
		if _, err := os.Stat(t.path); err != nil {
			return fmt.Errorf("failed to stat device path %s: %w", t.path, err)
		}
	}

	port, err := t.portFactory(t.path, &serial.Mode{
		BaudRate: t.baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", t.path, err)
	}

	if err := port.SetReadTimeout(ReadTimeout); err != nil {
		_ = port.Close()
		return fmt.Errorf("failed to set read timeout on serial port: %w", err)
	}

	t.port = port
	log.Info().Str("path", t.path).Int("baud", t.baudRate).Msg("opened serial display channel")

	go t.readLoop()
	t.handlers.Status(channel.StatusConnected)

	return nil
}

func (t *Transport) Subscribe(h channel.MessageHandler) {
	t.handlers.SetMessage(h)
}

func (t *Transport) SubscribeStatus(h channel.StatusHandler) {
	t.handlers.SetStatus(h)
}

func (t *Transport) Info() string {
	return "serial:" + t.path
}

// SetRawMode interrupts any running program and enters the raw REPL, or
// returns to the friendly prompt.
func (t *Transport) SetRawMode(ctx context.Context, enable bool) error {
	seq := []byte{CtrlB}
	if enable {
		seq = []byte{CtrlC, CtrlA}
	}
	if err := t.write(ctx, seq); err != nil {
		return fmt.Errorf("failed to set raw mode %t: %w", enable, err)
	}
	return nil
}

// Send writes command and asks the raw REPL to execute it.
func (t *Transport) Send(ctx context.Context, command string) error {
	buf := make([]byte, 0, len(command)+1)
	buf = append(buf, command...)
	buf = append(buf, CtrlD)
	t.awaitOK.Store(true)
	if err := t.write(ctx, buf); err != nil {
		return fmt.Errorf("failed to send command: %w", err)
	}
	return nil
}

func (t *Transport) write(ctx context.Context, data []byte) error {
	if t.closed.Load() || t.port == nil {
		return channel.ErrClosed
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	for len(data) > 0 {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("write cancelled: %w", err)
		}
		n := min(len(data), WriteChunkSize)
		written, err := t.port.Write(data[:n])
		if err != nil {
			return fmt.Errorf("failed to write to serial port: %w", err)
		}
		if written == 0 {
			return errors.New("serial port accepted no bytes")
		}
		data = data[written:]
	}
	return nil
}

func (t *Transport) readLoop() {
	var lineBuf []byte
	buf := make([]byte, 1024)

	for {
		select {
		case <-t.done:
			return
		default:
		}

		n, err := t.port.Read(buf)
		if err != nil {
			if t.closed.Load() {
				return
			}
			log.Error().Err(err).Str("path", t.path).Msg("failed to read from serial port")
			t.handlers.Status(channel.StatusDisconnected)
			if err := t.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close serial port")
			}
			return
		}

		// The raw REPL ends each reply with "\x04<stderr>\x04>" and no
		// newline, so end-of-output markers also end a line.
		for i := range n {
			c := buf[i]
			if c != '\n' && c != CtrlD {
				lineBuf = append(lineBuf, c)
				if len(lineBuf) < MaxLineBytes {
					continue
				}
				log.Warn().Int("bytes", len(lineBuf)).Msg("serial output line too long, splitting")
			}
			for _, line := range t.cleanLine(lineBuf) {
				t.handlers.Message(line)
			}
			lineBuf = lineBuf[:0]
		}
	}
}

// cleanLine removes prompts and control bytes from one piece of raw REPL
// output. The "OK" acknowledgement glued to the
// first output after a command is split off and reported on its own.
func (t *Transport) cleanLine(raw []byte) []string {
	var lines []string
	for _, seg := range bytes.Split(raw, []byte{CtrlD}) {
		s := strings.Map(func(r rune) rune {
			if r < 0x20 || r == 0x7f {
				return -1
			}
			return r
		}, string(seg))
		s = strings.TrimLeft(s, ">")
		if strings.TrimSpace(s) == "" {
			continue
		}
		if t.awaitOK.Load() && strings.HasPrefix(s, okPrompt) {
			t.awaitOK.Store(false)
			lines = append(lines, okPrompt)
			s = strings.TrimPrefix(s, okPrompt)
			if s == "" {
				continue
			}
		}
		lines = append(lines, s)
	}
	return lines
}

// Close stops the read loop and closes the port. It is safe to call more
// than once.
func (t *Transport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		t.closed.Store(true)
		close(t.done)
		if t.port != nil {
			if cerr := t.port.Close(); cerr != nil {
				err = fmt.Errorf("failed to close serial port: %w", cerr)
			}
		}
	})
	return err
}
