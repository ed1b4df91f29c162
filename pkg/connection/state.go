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

// Package connection tracks whether the display device is reachable.
package connection

import "sync/atomic"

// State represents the current state of the device connection
type State int32

const (
	// StateDisconnected indicates the device is not reachable
	StateDisconnected State = iota
	// StateConnecting indicates a channel is open but the device has not
	// reported in yet
	StateConnecting
	// StateConnected indicates the device reported itself ready
	StateConnected
)

// String returns a human-readable representation of the connection state
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "Disconnected"
	case StateConnecting:
		return "Connecting"
	case StateConnected:
		return "Connected"
	default:
		return "Unknown"
	}
}

// IsValidTransition checks if transitioning from one state to another is valid
func IsValidTransition(from, to State) bool {
	switch from {
	case StateDisconnected:
		// Devices that report in before the channel open is noticed go
		// straight to connected
		return to == StateConnecting || to == StateConnected
	case StateConnecting:
		return to == StateConnected || to == StateDisconnected
	case StateConnected:
		// Explicit disconnect status, channel failure or liveness timeout
		return to == StateDisconnected
	default:
		return false
	}
}

// StateManager provides thread-safe state management for the connection
type StateManager struct {
	state atomic.Int32
}

// NewStateManager creates a new state manager initialized to StateDisconnected
func NewStateManager() *StateManager {
	return &StateManager{}
}

// GetState returns the current connection state
func (sm *StateManager) GetState() State {
	return State(sm.state.Load())
}

// Transition atomically moves to newState if the move is valid from the
// current state, returning the state it moved from.
func (sm *StateManager) Transition(newState State) (State, bool) {
	for {
		current := State(sm.state.Load())
		if !IsValidTransition(current, newState) {
			return current, false
		}

		if sm.state.CompareAndSwap(int32(current), int32(newState)) {
			return current, true
		}
	}
}

// SetState atomically sets the connection state if the transition is valid
func (sm *StateManager) SetState(newState State) bool {
	_, ok := sm.Transition(newState)
	return ok
}

// ForceState atomically sets the connection state without validation
func (sm *StateManager) ForceState(newState State) {
	sm.state.Store(int32(newState))
}
