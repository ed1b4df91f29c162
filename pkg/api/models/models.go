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

package models

import (
	"encoding/json"
	"time"

	"github.com/ZaparooProject/zaparoo-lens/pkg/relay"
	"github.com/ZaparooProject/zaparoo-lens/pkg/transmit"
)

const (
	NotificationConnectionChanged = "connection.changed"
	NotificationDirectionChanged  = "direction.changed"
	NotificationDisplaySent       = "display.sent"
)

// Notification is pushed to every websocket client as a JSON-RPC
// notification with Method as the method name.
type Notification struct {
	Method string
	Params json.RawMessage
}

type NotificationObject struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type ConnectionChangedParams struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type DirectionParams struct {
	relay.Snapshot
	Name string `json:"name"`
}

func NewDirectionParams(snap relay.Snapshot) DirectionParams {
	return DirectionParams{Snapshot: snap, Name: snap.Direction.String()}
}

type DisplaySentParams struct {
	Text   string          `json:"text"`
	Report transmit.Report `json:"report"`
}

type LastDisplay struct {
	At     time.Time       `json:"at"`
	Text   string          `json:"text"`
	Report transmit.Report `json:"report"`
}

type StatusResponse struct {
	LastDisplay  *LastDisplay    `json:"lastDisplay,omitempty"`
	Connection   string          `json:"connection"`
	Channel      string          `json:"channel"`
	Revealed     string          `json:"revealed"`
	SessionID    string          `json:"sessionId"`
	Direction    DirectionParams `json:"direction"`
	LastSeen     time.Time       `json:"lastSeen"`
	Transmitting bool            `json:"transmitting"`
	RawMode      bool            `json:"rawMode"`
}

type TranslateResponse struct {
	Text      string          `json:"text"`
	Direction DirectionParams `json:"direction"`
	Report    transmit.Report `json:"report"`
	Absent    bool            `json:"absent"`
}

type DisplayRequest struct {
	Text string `json:"text" validate:"required,nonblank,max=4000"`
}

type TriggerRequest struct {
	Message string `json:"message" validate:"required,nonblank,max=256"`
}

type TriggerResponse struct {
	Kind      string          `json:"kind"`
	Direction DirectionParams `json:"direction"`
	Matched   bool            `json:"matched"`
}

func NewTriggerResponse(msg relay.TriggerMessage, snap relay.Snapshot) TriggerResponse {
	return TriggerResponse{
		Kind:      msg.Kind.String(),
		Matched:   msg.Kind != relay.TriggerNone,
		Direction: NewDirectionParams(snap),
	}
}
