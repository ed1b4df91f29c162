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

package transmit

import (
	"errors"
	"fmt"
)

var (
	// ErrTransmission is the root of every failed channel send.
	ErrTransmission = errors.New("transmission failed")
	// ErrChannelMode reports that the channel rejected the raw mode switch.
	ErrChannelMode = errors.New("channel rejected raw mode")
	// ErrTransmissionActive is returned when another transmission holds
	// the channel.
	ErrTransmissionActive = errors.New("transmission already active")
)

// Kind identifies the channel call that failed.
type Kind int

const (
	KindSend Kind = iota
	KindRawMode
	KindProbe
)

func (k Kind) String() string {
	switch k {
	case KindSend:
		return "send"
	case KindRawMode:
		return "raw mode"
	case KindProbe:
		return "probe"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error describes a channel call that still failed after its retries.
// It matches ErrTransmission, ErrChannelMode for raw mode failures, and
// the underlying cause.
type Error struct {
	Err      error
	Kind     Kind
	Batch    int
	Attempts int
}

func (e *Error) Error() string {
	if e.Kind == KindSend {
		return fmt.Sprintf("%v: batch %d after %d attempts: %v", ErrTransmission, e.Batch, e.Attempts, e.Err)
	}
	return fmt.Sprintf("%v: %s after %d attempts: %v", ErrTransmission, e.Kind, e.Attempts, e.Err)
}

func (e *Error) Unwrap() []error {
	errs := []error{ErrTransmission}
	if e.Kind == KindRawMode {
		errs = append(errs, ErrChannelMode)
	}
	return append(errs, e.Err)
}
