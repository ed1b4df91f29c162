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

// Package transmit delivers encoded display batches over a channel with
// pacing and bounded retries.
package transmit

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ZaparooProject/zaparoo-lens/pkg/channel"
	"github.com/ZaparooProject/zaparoo-lens/pkg/config"
	"github.com/ZaparooProject/zaparoo-lens/pkg/display"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"
)

// Delivery describes what is known about a batch once the channel
// accepted it. The display protocol has no acknowledgement, so accepted
// batches are never confirmed as shown.
type Delivery string

const DeliveryUnacknowledged Delivery = "unacknowledged"

// Report summarises one transmission.
type Report struct {
	Delivery Delivery `json:"delivery"`
	Batches  int      `json:"batches"`
	Sent     int      `json:"sent"`
	Attempts int      `json:"attempts"`
}

// Options controls pacing and retry behaviour.
type Options struct {
	Clock            clockwork.Clock
	HeartbeatCommand string
	Pacing           time.Duration
	RetryDelay       time.Duration
	Retries          int
}

// OptionsFromConfig reads transmission settings from the config.
func OptionsFromConfig(cfg *config.Instance) Options {
	return Options{
		Pacing:           cfg.Pacing(),
		RetryDelay:       cfg.RetryDelay(),
		Retries:          cfg.SendRetries(),
		HeartbeatCommand: cfg.Connection().HeartbeatCommand,
	}
}

// Transmitter owns the send side of a channel. At most one transmission
// runs at a time. Probes share the channel with transmissions but always
// give way to them.
type Transmitter struct {
	ch      channel.Channel
	clock   clockwork.Clock
	line    *semaphore.Weighted
	opts    Options
	active  atomic.Bool
	rawMode atomic.Bool
}

func New(ch channel.Channel, opts Options) *Transmitter {
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.HeartbeatCommand == "" {
		opts.HeartbeatCommand = "pass"
	}
	return &Transmitter{
		ch:    ch,
		clock: clock,
		line:  semaphore.NewWeighted(1),
		opts:  opts,
	}
}

// Active reports whether a transmission is in progress or waiting for the
// channel.
func (t *Transmitter) Active() bool {
	return t.active.Load()
}

// RawMode reports whether raw mode was switched on this session.
func (t *Transmitter) RawMode() bool {
	return t.rawMode.Load()
}

// ResetSession forgets the raw mode switch so the next transmission
// repeats it.
func (t *Transmitter) ResetSession() {
	t.rawMode.Store(false)
}

// Send transmits batches in order, waiting the pacing interval between
// consecutive batches. A partial failure is not rolled back; the report
// counts the batches the channel accepted.
func (t *Transmitter) Send(ctx context.Context, batches []display.CommandBatch) (Report, error) {
	report := Report{Batches: len(batches), Delivery: DeliveryUnacknowledged}
	if len(batches) == 0 {
		return report, nil
	}

	if !t.active.CompareAndSwap(false, true) {
		return report, ErrTransmissionActive
	}
	defer t.active.Store(false)

	// a heartbeat already on the wire finishes first
	if err := t.line.Acquire(ctx, 1); err != nil {
		return report, fmt.Errorf("transmission cancelled waiting for channel: %w", err)
	}
	defer t.line.Release(1)

	attempts, err := t.ensureRawMode(ctx)
	report.Attempts += attempts
	if err != nil {
		return report, err
	}

	for i, batch := range batches {
		if i > 0 {
			if err := t.wait(ctx, t.opts.Pacing); err != nil {
				return report, fmt.Errorf("transmission cancelled before batch %d: %w", i, err)
			}
		}

		cmd := batch.Render()
		attempts, err := t.retry(ctx, func(ctx context.Context) error {
			return t.ch.Send(ctx, cmd)
		})
		report.Attempts += attempts
		if err != nil {
			if ctx.Err() != nil {
				return report, fmt.Errorf("transmission cancelled at batch %d: %w", i, ctx.Err())
			}
			return report, &Error{Kind: KindSend, Batch: i, Attempts: attempts, Err: err}
		}
		report.Sent++
		log.Debug().Int("batch", i).Int("lines", len(batch.Lines)).Msg("sent display batch")
	}

	log.Info().
		Int("batches", report.Batches).
		Int("attempts", report.Attempts).
		Msg("display transmission complete")
	return report, nil
}

// Probe sends the heartbeat command if the channel is idle. It is used
// to provoke device output for liveness tracking and is not retried. A
// running or pending transmission makes it return ErrTransmissionActive
// without touching the channel.
func (t *Transmitter) Probe(ctx context.Context) error {
	if t.active.Load() || !t.line.TryAcquire(1) {
		return ErrTransmissionActive
	}
	defer t.line.Release(1)
	if t.active.Load() {
		return ErrTransmissionActive
	}

	if _, err := t.ensureRawMode(ctx); err != nil {
		return err
	}
	if err := t.ch.Send(ctx, t.opts.HeartbeatCommand); err != nil {
		return &Error{Kind: KindProbe, Attempts: 1, Err: err}
	}
	return nil
}

func (t *Transmitter) ensureRawMode(ctx context.Context) (int, error) {
	if t.rawMode.Load() {
		return 0, nil
	}
	attempts, err := t.retry(ctx, func(ctx context.Context) error {
		return t.ch.SetRawMode(ctx, true)
	})
	if err != nil {
		if ctx.Err() != nil {
			return attempts, fmt.Errorf("raw mode switch cancelled: %w", ctx.Err())
		}
		return attempts, &Error{Kind: KindRawMode, Attempts: attempts, Err: err}
	}
	t.rawMode.Store(true)
	log.Debug().Str("channel", t.ch.Info()).Msg("raw mode enabled")
	return attempts, nil
}

// retry runs fn until it succeeds or the retry budget is spent, and
// returns the number of attempts made.
func (t *Transmitter) retry(ctx context.Context, fn func(context.Context) error) (int, error) {
	var err error
	attempt := 0
	for attempt <= t.opts.Retries {
		if cerr := ctx.Err(); cerr != nil {
			return attempt, cerr
		}
		attempt++
		if err = fn(ctx); err == nil {
			return attempt, nil
		}
		if attempt > t.opts.Retries {
			break
		}
		log.Warn().Err(err).Int("attempt", attempt).Msg("channel call failed, retrying")
		if werr := t.wait(ctx, t.opts.RetryDelay); werr != nil {
			return attempt, werr
		}
	}
	return attempt, err
}

func (t *Transmitter) wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-t.clock.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
