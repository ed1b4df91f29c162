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

package relay

import (
	"strings"
	"sync/atomic"

	"github.com/ZaparooProject/zaparoo-lens/pkg/channel"
	"github.com/ZaparooProject/zaparoo-lens/pkg/config"
	"github.com/rs/zerolog/log"
)

// TriggerKind is the meaning of an inbound device line.
type TriggerKind int

const (
	TriggerNone TriggerKind = iota
	TriggerA
	TriggerB
)

func (k TriggerKind) String() string {
	switch k {
	case TriggerA:
		return "trigger a"
	case TriggerB:
		return "trigger b"
	default:
		return "none"
	}
}

// TriggerMessage is a classified inbound line.
type TriggerMessage struct {
	Raw     string
	Trimmed string
	Kind    TriggerKind
}

// Phrases are the exact, case-sensitive lines that select a direction.
type Phrases struct {
	A string
	B string
}

func PhrasesFromConfig(r config.Relay) Phrases {
	return Phrases{A: r.TriggerA, B: r.TriggerB}
}

// Classify trims surrounding whitespace from raw and matches it against
// the phrases.
func Classify(raw string, p Phrases) TriggerMessage {
	msg := TriggerMessage{Raw: raw, Trimmed: strings.TrimSpace(raw)}
	switch {
	case msg.Trimmed == "":
	case msg.Trimmed == p.A:
		msg.Kind = TriggerA
	case msg.Trimmed == p.B:
		msg.Kind = TriggerB
	}
	return msg
}

// ChangeFunc is called after a trigger changed the direction.
type ChangeFunc func(Snapshot)

// Listener applies device triggers to a DirectionState.
type Listener struct {
	state    *DirectionState
	onChange atomic.Pointer[ChangeFunc]
	phrases  Phrases
}

var _ channel.MessageHandler = (*Listener)(nil)

func NewListener(state *DirectionState, phrases Phrases) *Listener {
	return &Listener{state: state, phrases: phrases}
}

// OnChange registers fn to be told about direction changes, replacing
// any previous callback.
func (l *Listener) OnChange(fn ChangeFunc) {
	l.onChange.Store(&fn)
}

func (l *Listener) Classify(raw string) TriggerMessage {
	return Classify(raw, l.phrases)
}

// OnMessage handles one inbound device line. Lines that are not a
// trigger phrase leave the direction untouched.
func (l *Listener) OnMessage(raw string) {
	msg := l.Classify(raw)

	var target Direction
	switch msg.Kind {
	case TriggerA:
		target = DirectionA
	case TriggerB:
		target = DirectionB
	default:
		log.Debug().Str("message", msg.Trimmed).Msg("ignoring device message")
		return
	}

	snap, changed := l.state.Set(target)
	if !changed {
		return
	}

	log.Info().
		Str("direction", snap.Direction.String()).
		Str("input", snap.InputLanguage).
		Str("output", snap.OutputLanguage).
		Str("icon", snap.Icon).
		Msg("translation direction changed")

	if fn := l.onChange.Load(); fn != nil && *fn != nil {
		(*fn)(snap)
	}
}
