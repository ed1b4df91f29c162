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

package connection

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/ZaparooProject/zaparoo-lens/pkg/channel"
	"github.com/ZaparooProject/zaparoo-lens/pkg/config"
	"github.com/ZaparooProject/zaparoo-lens/pkg/transmit"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// ProbeFunc asks the device for a sign of life.
type ProbeFunc func(ctx context.Context) error

// ChangeFunc is called after every state transition.
type ChangeFunc func(from, to State)

type Options struct {
	Clock              clockwork.Clock
	Probe              ProbeFunc
	ConnectedStatus    string
	DisconnectedStatus string
	LivenessTimeout    time.Duration
	HeartbeatInterval  time.Duration
}

// OptionsFromConfig reads monitor settings from the config. The probe is
// left for the caller to wire.
func OptionsFromConfig(cfg *config.Instance) Options {
	conn := cfg.Connection()
	return Options{
		ConnectedStatus:    conn.ConnectedStatus,
		DisconnectedStatus: conn.DisconnectedStatus,
		LivenessTimeout:    cfg.LivenessTimeout(),
		HeartbeatInterval:  cfg.HeartbeatInterval(),
	}
}

// Monitor owns the connection state. Status lines drive transitions and
// any inbound traffic counts as proof of life.
type Monitor struct {
	clock    clockwork.Clock
	sm       *StateManager
	onChange atomic.Pointer[ChangeFunc]
	opts     Options
	lastSeen atomic.Int64
}

var (
	_ channel.StatusHandler  = (*Monitor)(nil)
	_ channel.MessageHandler = (*Monitor)(nil)
)

func NewMonitor(opts Options) *Monitor {
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if opts.ConnectedStatus == "" {
		opts.ConnectedStatus = channel.StatusConnected
	}
	m := &Monitor{
		clock: clock,
		sm:    NewStateManager(),
		opts:  opts,
	}
	m.Touch()
	return m
}

func (m *Monitor) State() State {
	return m.sm.GetState()
}

// OnChange registers fn to be told about state transitions, replacing any
// previous callback.
func (m *Monitor) OnChange(fn ChangeFunc) {
	m.onChange.Store(&fn)
}

// OnStatus handles a channel status line. Only exact matches of the
// configured literals have an effect.
func (m *Monitor) OnStatus(message string) {
	switch {
	case message == m.opts.ConnectedStatus:
		m.transition(StateConnected, "status")
	case m.opts.DisconnectedStatus != "" && message == m.opts.DisconnectedStatus:
		m.transition(StateDisconnected, "status")
	default:
		log.Debug().Str("status", message).Msg("ignoring channel status")
	}
}

// OnMessage records inbound device traffic. Any line from the device is
// proof of life, so a connection dropped by the liveness check comes back
// as soon as the device is heard again.
func (m *Monitor) OnMessage(string) {
	m.Touch()
	if m.State() != StateConnected {
		m.transition(StateConnected, "device traffic")
	}
}

// MarkConnecting records that a channel was opened.
func (m *Monitor) MarkConnecting() {
	m.transition(StateConnecting, "channel opened")
}

// MarkDisconnected records that the channel was closed locally.
func (m *Monitor) MarkDisconnected() {
	m.transition(StateDisconnected, "channel closed")
}

// Touch records device activity at the current time.
func (m *Monitor) Touch() {
	m.lastSeen.Store(m.clock.Now().UnixNano())
}

// LastSeen returns when the device was last heard from.
func (m *Monitor) LastSeen() time.Time {
	return time.Unix(0, m.lastSeen.Load())
}

func (m *Monitor) transition(to State, reason string) {
	from, ok := m.sm.Transition(to)
	if !ok {
		return
	}
	if to == StateConnected {
		m.Touch()
	}

	log.Info().
		Str("from", from.String()).
		Str("to", to.String()).
		Str("reason", reason).
		Msg("display connection state changed")

	if fn := m.onChange.Load(); fn != nil && *fn != nil {
		(*fn)(from, to)
	}
}

// Run checks liveness until ctx is done. Silent connected devices are
// probed every heartbeat interval and dropped after the liveness timeout.
func (m *Monitor) Run(ctx context.Context) error {
	period := m.opts.HeartbeatInterval
	if period <= 0 || (m.opts.LivenessTimeout > 0 && m.opts.LivenessTimeout < period) {
		period = m.opts.LivenessTimeout
	}
	if period <= 0 {
		<-ctx.Done()
		return nil
	}

	ticker := m.clock.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.Chan():
			m.check(ctx)
		}
	}
}

func (m *Monitor) check(ctx context.Context) {
	if m.State() != StateConnected {
		return
	}

	idle := m.clock.Since(m.LastSeen())
	if m.opts.LivenessTimeout > 0 && idle >= m.opts.LivenessTimeout {
		log.Warn().Dur("idle", idle).Msg("display device silent past liveness timeout")
		m.transition(StateDisconnected, "liveness timeout")
		return
	}

	if m.opts.Probe == nil || m.opts.HeartbeatInterval <= 0 || idle < m.opts.HeartbeatInterval {
		return
	}
	err := m.opts.Probe(ctx)
	switch {
	case err == nil:
	case errors.Is(err, transmit.ErrTransmissionActive):
		log.Debug().Msg("skipping heartbeat during transmission")
	default:
		log.Warn().Err(err).Msg("heartbeat probe failed")
	}
}
