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

package channel

import "sync/atomic"

// Handlers stores the subscribed handlers of a transport so read loops
// can dispatch without locking.
type Handlers struct {
	message atomic.Pointer[MessageHandler]
	status  atomic.Pointer[StatusHandler]
}

func (h *Handlers) SetMessage(mh MessageHandler) {
	h.message.Store(&mh)
}

func (h *Handlers) SetStatus(sh StatusHandler) {
	h.status.Store(&sh)
}

// Message forwards raw to the message handler, if any.
func (h *Handlers) Message(raw string) {
	if p := h.message.Load(); p != nil && *p != nil {
		(*p).OnMessage(raw)
	}
}

// Status forwards message to the status handler, if any.
func (h *Handlers) Status(message string) {
	if p := h.status.Load(); p != nil && *p != nil {
		(*p).OnStatus(message)
	}
}
