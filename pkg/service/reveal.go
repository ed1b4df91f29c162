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

package service

import (
	"context"
	"time"

	"github.com/ZaparooProject/zaparoo-lens/pkg/helpers/syncutil"
	"github.com/jonboulle/clockwork"
)

// DefaultRevealInterval is how long each rune of a response takes to
// appear in the typing effect.
const DefaultRevealInterval = 50 * time.Millisecond

// Reveal progressively exposes the latest response one rune per tick. It
// is purely cosmetic and never touches the channel.
type Reveal struct {
	clock    clockwork.Clock
	cancel   context.CancelFunc
	done     chan struct{}
	text     []rune
	interval time.Duration
	shown    int
	mu       syncutil.Mutex
}

func NewReveal(clock clockwork.Clock, interval time.Duration) *Reveal {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if interval <= 0 {
		interval = DefaultRevealInterval
	}
	return &Reveal{clock: clock, interval: interval}
}

// Start cancels any reveal in progress and begins revealing text.
func (r *Reveal) Start(text string) {
	r.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	r.mu.Lock()
	r.text = []rune(text)
	r.shown = 0
	r.cancel = cancel
	r.done = done
	r.mu.Unlock()

	go r.run(ctx, done)
}

func (r *Reveal) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := r.clock.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			r.mu.Lock()
			if r.shown < len(r.text) {
				r.shown++
			}
			finished := r.shown >= len(r.text)
			r.mu.Unlock()
			if finished {
				return
			}
		}
	}
}

// Stop cancels the reveal in progress, if any, and waits for it to end.
// The text revealed so far is kept.
func (r *Reveal) Stop() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel, r.done = nil, nil
	r.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Clear stops the reveal and forgets its text.
func (r *Reveal) Clear() {
	r.Stop()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.text = nil
	r.shown = 0
}

// Text returns the part of the response revealed so far.
func (r *Reveal) Text() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return string(r.text[:r.shown])
}

// Done reports whether the whole response is visible.
func (r *Reveal) Done() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.shown >= len(r.text)
}
