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

package notifications

import (
	"encoding/json"

	"github.com/ZaparooProject/zaparoo-lens/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-lens/pkg/relay"
	"github.com/ZaparooProject/zaparoo-lens/pkg/transmit"
	"github.com/rs/zerolog/log"
)

// sendNotification never blocks: device callbacks run on transport read
// loops and must not stall when no API client is draining the channel.
func sendNotification(ns chan<- models.Notification, method string, payload any) {
	if ns == nil {
		return
	}

	var params json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			log.Error().Err(err).Str("method", method).Msg("failed to marshal notification")
			return
		}
		params = data
	}

	select {
	case ns <- models.Notification{Method: method, Params: params}:
	default:
		log.Warn().Str("method", method).Msg("notification channel full, dropping notification")
	}
}

func ConnectionChanged(ns chan<- models.Notification, from, to string) {
	sendNotification(ns, models.NotificationConnectionChanged, models.ConnectionChangedParams{
		From: from,
		To:   to,
	})
}

func DirectionChanged(ns chan<- models.Notification, snap relay.Snapshot) {
	sendNotification(ns, models.NotificationDirectionChanged, models.NewDirectionParams(snap))
}

func DisplaySent(ns chan<- models.Notification, text string, report transmit.Report) {
	sendNotification(ns, models.NotificationDisplaySent, models.DisplaySentParams{
		Text:   text,
		Report: report,
	})
}
