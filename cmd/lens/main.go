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

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/ZaparooProject/zaparoo-lens/pkg/api/client"
	"github.com/ZaparooProject/zaparoo-lens/pkg/cli"
	"github.com/ZaparooProject/zaparoo-lens/pkg/config"
	"github.com/ZaparooProject/zaparoo-lens/pkg/service"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := run(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func run() error {
	flags := cli.SetupFlags(flag.CommandLine)
	if err := flags.Parse(os.Args[1:]); err != nil {
		return err
	}

	if *flags.Version {
		_, _ = fmt.Printf("Zaparoo Lens v%s\n", config.AppVersion)
		return nil
	}

	var logWriters []io.Writer
	if *flags.Daemon {
		logWriters = []io.Writer{zerolog.ConsoleWriter{Out: os.Stderr}}
	}

	cfg, err := cli.Setup(*flags.ConfigDir, config.BaseDefaults, logWriters)
	if err != nil {
		return err
	}

	defer func() {
		if err := recover(); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Panic: %s\n", err)
			log.Fatal().Msgf("panic: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	api := client.New(cfg)

	if flags.OneShot() {
		err := flags.Remote(ctx, api, os.Stdout)
		if errors.Is(err, cli.ErrServiceNotRunning) {
			log.Debug().Msg("no running service, acting in-process")
			return flags.RunOnce(ctx, cfg, service.Options{}, os.Stdout)
		}
		return err
	}

	if cfg.APIEnabled() && api.Running(ctx) {
		return errors.New("lens service is already running")
	}

	var out io.Writer = os.Stdout
	if *flags.Daemon {
		out = nil
		log.Info().Msg("started in daemon mode")
	}
	return cli.Serve(ctx, cfg, service.Options{}, out)
}
