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

// Package relay turns phrases sent by the device into translation
// direction changes.
package relay

import (
	"github.com/ZaparooProject/zaparoo-lens/pkg/config"
	"github.com/ZaparooProject/zaparoo-lens/pkg/helpers/syncutil"
)

// Direction selects which language pair is translated.
type Direction int

const (
	DirectionA Direction = iota
	DirectionB
)

func (d Direction) String() string {
	if d == DirectionB {
		return "B"
	}
	return "A"
}

// Profile is what a direction implies for translation and display.
type Profile struct {
	InputLanguage  string `json:"inputLanguage"`
	OutputLanguage string `json:"outputLanguage"`
	Icon           string `json:"icon"`
	Context        string `json:"context"`
}

//nolint:gocritic // config section copied by value
func profileFromConfig(p config.DirectionProfile) Profile {
	return Profile{
		InputLanguage:  p.InputLanguage,
		OutputLanguage: p.OutputLanguage,
		Icon:           p.Icon,
		Context:        p.Context,
	}
}

// Snapshot is a consistent view of the direction and its profile.
type Snapshot struct {
	Profile
	Direction Direction `json:"direction"`
}

// DirectionState holds the current direction. Readers always see a
// direction together with the profile that belongs to it.
type DirectionState struct {
	profiles [2]Profile
	mu       syncutil.RWMutex
	current  Direction
}

// NewDirectionState returns a state in DirectionA.
//
//nolint:gocritic // config section copied by value
func NewDirectionState(dirs config.Directions) *DirectionState {
	return &DirectionState{
		profiles: [2]Profile{profileFromConfig(dirs.A), profileFromConfig(dirs.B)},
		current:  DirectionA,
	}
}

func (s *DirectionState) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{Direction: s.current, Profile: s.profiles[s.current]}
}

func (s *DirectionState) Current() Direction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Set moves to d and reports whether the direction changed.
func (s *DirectionState) Set(d Direction) (Snapshot, bool) {
	if d != DirectionA && d != DirectionB {
		d = DirectionA
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := s.current != d
	s.current = d
	return Snapshot{Direction: d, Profile: s.profiles[d]}, changed
}

// Reset returns to the initial direction.
func (s *DirectionState) Reset() (Snapshot, bool) {
	return s.Set(DirectionA)
}

// SetProfiles replaces both profiles, keeping the current direction.
//
//nolint:gocritic // config section copied by value
func (s *DirectionState) SetProfiles(dirs config.Directions) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles = [2]Profile{profileFromConfig(dirs.A), profileFromConfig(dirs.B)}
}
