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

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/ZaparooProject/zaparoo-lens/pkg/api"
	"github.com/ZaparooProject/zaparoo-lens/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-lens/pkg/config"
	"github.com/ZaparooProject/zaparoo-lens/pkg/service"
	"github.com/ZaparooProject/zaparoo-lens/pkg/service/broker"
	"github.com/ZaparooProject/zaparoo-lens/pkg/service/publishers"
	"github.com/ZaparooProject/zaparoo-lens/pkg/transcript"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const notificationBuffer = 100

// Serve runs the session, and the API when enabled, until ctx is done.
// When out is set every notification is also printed to it as a JSON
// line.
func Serve(ctx context.Context, cfg *config.Instance, opts service.Options, out io.Writer) error {
	notifications := make(chan models.Notification, notificationBuffer)
	b := broker.NewBroker(notifications)
	opts.Notifications = notifications

	svc, err := service.New(cfg, opts)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}
	defer func() {
		if err := svc.Close(); err != nil {
			log.Warn().Err(err).Msg("error closing service")
		}
	}()

	g, gctx := errgroup.WithContext(ctx)

	var apiSub, printSub *broker.Subscription
	if cfg.APIEnabled() {
		sub := b.Subscribe(notificationBuffer)
		apiSub = &sub
	}
	if out != nil {
		sub := b.Subscribe(notificationBuffer)
		printSub = &sub
	}

	started := make([]*publishers.MQTTPublisher, 0)
	for _, p := range publishers.FromConfig(cfg) {
		sub := b.Subscribe(notificationBuffer)
		if err := p.Start(sub.C); err != nil {
			log.Error().Err(err).Str("topic", p.Topic()).Msg("error starting mqtt publisher")
			b.Unsubscribe(sub.ID)
			continue
		}
		started = append(started, p)
	}
	defer func() {
		for _, p := range started {
			p.Stop()
		}
	}()

	g.Go(func() error {
		return b.Run(gctx)
	})

	if apiSub != nil {
		g.Go(func() error {
			return api.Start(gctx, cfg, svc, apiSub.C)
		})
	}

	if printSub != nil {
		g.Go(func() error {
			for notif := range printSub.C {
				if err := printJSON(out, models.NotificationObject{
					JSONRPC: "2.0",
					Method:  notif.Method,
					Params:  notif.Params,
				}); err != nil {
					log.Warn().Err(err).Msg("error printing notification")
				}
			}
			return nil
		})
	}

	// A missing device is not fatal: the monitor reports Disconnected
	// and the API stays up.
	if err := svc.Open(); err != nil {
		log.Error().Err(err).Msg("error opening display channel")
	}

	g.Go(func() error {
		return svc.Run(gctx)
	})

	log.Info().Str("version", config.AppVersion).Msg("lens service started")
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("service stopped: %w", err)
	}
	log.Info().Msg("lens service stopped")
	return nil
}

// RunOnce opens a session just long enough to perform the action flags
// in-process, for when no service is running.
func (f *Flags) RunOnce(ctx context.Context, cfg *config.Instance, opts service.Options, out io.Writer) error {
	if f.Passed("transcript") {
		opts.Transcript = transcript.NewStaticSource(*f.Transcript)
	}

	svc, err := service.New(cfg, opts)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}
	defer func() {
		if err := svc.Close(); err != nil {
			log.Warn().Err(err).Msg("error closing service")
		}
	}()

	var res any
	switch {
	case f.Passed("wait"):
		return errors.New("wait flag requires a running service")
	case f.Passed("display"):
		if *f.Display == "" {
			return errors.New("display flag requires a value")
		}
		if err := svc.Open(); err != nil {
			return fmt.Errorf("failed to open session: %w", err)
		}
		report, err := svc.Display(ctx, *f.Display)
		if err != nil {
			return fmt.Errorf("failed to display text: %w", err)
		}
		res = models.DisplaySentParams{Text: *f.Display, Report: report}
	case *f.Translate:
		if err := svc.Open(); err != nil {
			return fmt.Errorf("failed to open session: %w", err)
		}
		tr, err := svc.Translate(ctx)
		if err != nil {
			return fmt.Errorf("failed to translate: %w", err)
		}
		res = models.TranslateResponse{
			Text:      tr.Text,
			Direction: models.NewDirectionParams(tr.Direction),
			Report:    tr.Report,
			Absent:    tr.Absent,
		}
	case f.Passed("trigger"):
		msg := svc.Trigger(*f.Trigger)
		res = models.NewTriggerResponse(msg, svc.Direction())
	case *f.Reset:
		res = models.NewDirectionParams(svc.Reset())
	default:
		res = svc.Status()
	}
	return printJSON(out, res)
}
