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

// Package service runs a display session: it owns the device channel,
// reacts to device triggers and turns transcripts into display updates.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ZaparooProject/zaparoo-lens/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-lens/pkg/api/notifications"
	"github.com/ZaparooProject/zaparoo-lens/pkg/channel"
	"github.com/ZaparooProject/zaparoo-lens/pkg/config"
	"github.com/ZaparooProject/zaparoo-lens/pkg/connection"
	"github.com/ZaparooProject/zaparoo-lens/pkg/display"
	"github.com/ZaparooProject/zaparoo-lens/pkg/helpers/syncutil"
	"github.com/ZaparooProject/zaparoo-lens/pkg/relay"
	"github.com/ZaparooProject/zaparoo-lens/pkg/transcript"
	"github.com/ZaparooProject/zaparoo-lens/pkg/translate"
	"github.com/ZaparooProject/zaparoo-lens/pkg/transmit"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// ErrNoTranscript is returned by Translate when there is nothing to
// translate.
var ErrNoTranscript = errors.New("no transcript available")

// Options replaces the collaborators New would otherwise build from the
// config.
type Options struct {
	Transport        Transport
	TransportFactory TransportFactory
	Translator       translate.Client
	Transcript       transcript.Source
	Clock            clockwork.Clock
	Notifications    chan<- models.Notification
	RevealInterval   time.Duration
}

// TranslateResult is the outcome of one Translate call.
type TranslateResult struct {
	Text      string
	Direction relay.Snapshot
	Report    transmit.Report
	Absent    bool
}

// Service owns one display session.
type Service struct {
	cfg           *config.Instance
	transport     Transport
	transmitter   *transmit.Transmitter
	monitor       *connection.Monitor
	direction     *relay.DirectionState
	listener      *relay.Listener
	layout        *display.Layout
	builder       *translate.Builder
	translator    translate.Client
	transcript    transcript.Source
	notifications chan<- models.Notification
	clock         clockwork.Clock
	reveal        *Reveal
	lastDisplay   *models.LastDisplay
	mu            syncutil.RWMutex
}

// New wires a session from cfg. The channel is not opened until Open.
func New(cfg *config.Instance, opts Options) (*Service, error) {
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	transport := opts.Transport
	if transport == nil {
		factory := opts.TransportFactory
		if factory == nil {
			factory = DefaultTransportFactory
		}
		t, err := factory(cfg.Channel())
		if err != nil {
			return nil, err
		}
		transport = t
	}

	builder, err := translate.NewBuilder(cfg.Translation())
	if err != nil {
		return nil, fmt.Errorf("failed to create prompt builder: %w", err)
	}

	translator := opts.Translator
	if translator == nil {
		translator = translate.NewOpenAIClientFromConfig(cfg)
	}

	source := opts.Transcript
	if source == nil {
		source, err = defaultTranscript(cfg)
		if err != nil {
			return nil, err
		}
	}

	txOpts := transmit.OptionsFromConfig(cfg)
	txOpts.Clock = clock
	transmitter := transmit.New(transport, txOpts)

	monOpts := connection.OptionsFromConfig(cfg)
	monOpts.Clock = clock
	monOpts.Probe = transmitter.Probe

	direction := relay.NewDirectionState(cfg.Directions())

	s := &Service{
		cfg:           cfg,
		transport:     transport,
		transmitter:   transmitter,
		monitor:       connection.NewMonitor(monOpts),
		direction:     direction,
		listener:      relay.NewListener(direction, relay.PhrasesFromConfig(cfg.Relay())),
		layout:        display.NewLayout(cfg.Display()),
		builder:       builder,
		translator:    translator,
		transcript:    source,
		notifications: opts.Notifications,
		clock:         clock,
		reveal:        NewReveal(clock, opts.RevealInterval),
	}

	s.listener.OnChange(func(snap relay.Snapshot) {
		notifications.DirectionChanged(s.notifications, snap)
	})
	s.monitor.OnChange(func(from, to connection.State) {
		notifications.ConnectionChanged(s.notifications, from.String(), to.String())
	})

	return s, nil
}

func defaultTranscript(cfg *config.Instance) (transcript.Source, error) {
	path := cfg.TranscriptPath()
	if path == "" {
		return transcript.NewStaticSource(""), nil
	}
	src, err := transcript.NewFileSource(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open transcript source: %w", err)
	}
	return src, nil
}

// OnMessage handles one inbound device line: it counts as proof of life
// and may switch the translation direction.
func (s *Service) OnMessage(raw string) {
	s.monitor.OnMessage(raw)
	s.listener.OnMessage(raw)
}

var _ channel.MessageHandler = (*Service)(nil)

// Open subscribes to the channel and opens it.
func (s *Service) Open() error {
	s.transport.Subscribe(s)
	s.transport.SubscribeStatus(s.monitor)

	s.monitor.MarkConnecting()
	if err := s.transport.Open(); err != nil {
		s.monitor.MarkDisconnected()
		return fmt.Errorf("failed to open display channel: %w", err)
	}
	log.Info().Str("channel", s.transport.Info()).Msg("display channel opened")
	return nil
}

// Run keeps the session's background loops going until ctx is done.
func (s *Service) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.monitor.Run(gctx)
	})

	if fs, ok := s.transcript.(*transcript.FileSource); ok {
		g.Go(func() error {
			return fs.Run(gctx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		s.reveal.Stop()
		return nil
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("session stopped: %w", err)
	}
	return nil
}

// Close ends the session and closes the channel.
func (s *Service) Close() error {
	s.reveal.Stop()
	s.monitor.MarkDisconnected()
	if err := s.transport.Close(); err != nil {
		return fmt.Errorf("failed to close display channel: %w", err)
	}
	return nil
}

// Translate sends the latest transcript to the model and shows the
// answer. An absent answer leaves the display and connection untouched.
func (s *Service) Translate(ctx context.Context) (TranslateResult, error) {
	text := s.transcript.Latest()
	if strings.TrimSpace(text) == "" {
		return TranslateResult{}, ErrNoTranscript
	}

	snap := s.direction.Snapshot()
	result := TranslateResult{Direction: snap}

	req, err := s.builder.Build(snap, text)
	if err != nil {
		return result, fmt.Errorf("failed to build translation request: %w", err)
	}

	log.Info().
		Str("direction", snap.Direction.String()).
		Int("transcript_length", len(text)).
		Msg("requesting translation")

	res, err := s.translator.Complete(ctx, req)
	if err != nil {
		return result, fmt.Errorf("failed to translate: %w", err)
	}
	if res.Absent {
		log.Info().Msg("translation returned no text, display unchanged")
		result.Absent = true
		return result, nil
	}

	result.Text = res.Text
	report, err := s.Display(ctx, res.Text)
	result.Report = report
	if err != nil {
		return result, err
	}
	return result, nil
}

// Display lays out text and transmits it to the device.
func (s *Service) Display(ctx context.Context, text string) (transmit.Report, error) {
	batches := s.layout.Prepare(text)

	report, err := s.transmitter.Send(ctx, batches)
	if err != nil {
		return report, fmt.Errorf("failed to display text: %w", err)
	}
	s.reveal.Start(text)

	s.mu.Lock()
	s.lastDisplay = &models.LastDisplay{
		At:     s.clock.Now(),
		Text:   text,
		Report: report,
	}
	s.mu.Unlock()

	notifications.DisplaySent(s.notifications, text, report)
	return report, nil
}

// Trigger feeds msg to the relay as if the device had sent it. It is not
// device traffic, so the connection state is left alone.
func (s *Service) Trigger(msg string) relay.TriggerMessage {
	s.listener.OnMessage(msg)
	return s.listener.Classify(msg)
}

// Reset starts a fresh session: direction A, raw mode to be switched
// again and no response on show.
func (s *Service) Reset() relay.Snapshot {
	s.reveal.Clear()
	s.transmitter.ResetSession()

	s.mu.Lock()
	s.lastDisplay = nil
	s.mu.Unlock()

	snap, changed := s.direction.Reset()
	if changed {
		notifications.DirectionChanged(s.notifications, snap)
	}
	log.Info().Msg("session reset")
	return snap
}

func (s *Service) Direction() relay.Snapshot {
	return s.direction.Snapshot()
}

func (s *Service) ConnectionState() connection.State {
	return s.monitor.State()
}

// Status is a snapshot of the session for the API.
func (s *Service) Status() models.StatusResponse {
	s.mu.RLock()
	var last *models.LastDisplay
	if s.lastDisplay != nil {
		copied := *s.lastDisplay
		last = &copied
	}
	s.mu.RUnlock()

	return models.StatusResponse{
		Connection:   s.monitor.State().String(),
		Channel:      s.transport.Info(),
		SessionID:    s.cfg.SessionID(),
		Direction:    models.NewDirectionParams(s.direction.Snapshot()),
		LastSeen:     s.monitor.LastSeen(),
		Transmitting: s.transmitter.Active(),
		RawMode:      s.transmitter.RawMode(),
		Revealed:     s.reveal.Text(),
		LastDisplay:  last,
	}
}
