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
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/ZaparooProject/zaparoo-lens/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-lens/pkg/config"
	"github.com/ZaparooProject/zaparoo-lens/pkg/helpers"
)

var ErrServiceNotRunning = errors.New("service is not running")

type Flags struct {
	set        *flag.FlagSet
	ConfigDir  *string
	Display    *string
	Transcript *string
	Trigger    *string
	Wait       *string
	WaitFor    *time.Duration
	Translate  *bool
	Status     *bool
	Reset      *bool
	Version    *bool
	Daemon     *bool
}

// SetupFlags defines all CLI flags on fs.
func SetupFlags(fs *flag.FlagSet) *Flags {
	return &Flags{
		set: fs,
		ConfigDir: fs.String(
			"config-dir",
			"",
			"directory holding "+config.CfgFile,
		),
		Display: fs.String(
			"display",
			"",
			"show text on the display and exit",
		),
		Transcript: fs.String(
			"transcript",
			"",
			"translate this text instead of the configured transcript file",
		),
		Trigger: fs.String(
			"trigger",
			"",
			"feed a line as if the device had sent it",
		),
		Wait: fs.String(
			"wait",
			"",
			"print the params of the next notification with this method",
		),
		WaitFor: fs.Duration(
			"wait-timeout",
			0,
			"how long -wait blocks, negative waits forever",
		),
		Translate: fs.Bool(
			"translate",
			false,
			"translate the latest transcript, show it and exit",
		),
		Status: fs.Bool(
			"status",
			false,
			"print the running service status",
		),
		Reset: fs.Bool(
			"reset",
			false,
			"start a fresh display session",
		),
		Version: fs.Bool(
			"version",
			false,
			"print version and exit",
		),
		Daemon: fs.Bool(
			"daemon",
			false,
			"run the service in the foreground with logs on stderr",
		),
	}
}

func (f *Flags) Parse(args []string) error {
	if err := f.set.Parse(args); err != nil {
		return fmt.Errorf("failed to parse flags: %w", err)
	}
	return nil
}

func (f *Flags) Passed(name string) bool {
	found := false
	f.set.Visit(func(fl *flag.Flag) {
		if fl.Name == name {
			found = true
		}
	})
	return found
}

// OneShot reports whether an action flag was given, so the process acts
// and exits instead of running the service.
func (f *Flags) OneShot() bool {
	return f.Passed("display") || f.Passed("trigger") || f.Passed("wait") ||
		*f.Translate || *f.Status || *f.Reset
}

// Setup creates the directories, starts logging and loads the config.
//
//nolint:gocritic // config struct copied for immutability
func Setup(configDir string, defaults config.Values, writers []io.Writer) (*config.Instance, error) {
	if configDir == "" {
		configDir = helpers.ConfigDir()
	}

	if err := helpers.InitLogging(helpers.DataDir(), false, writers...); err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}

	cfg, err := config.NewConfig(configDir, defaults)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.DebugLogging() {
		cfg.SetDebugLogging(true)
	}
	return cfg, nil
}

// APIClient is the running service as seen by the CLI.
type APIClient interface {
	Running(ctx context.Context) bool
	Status(ctx context.Context) (models.StatusResponse, error)
	Translate(ctx context.Context) (models.TranslateResponse, error)
	Display(ctx context.Context, text string) (models.DisplaySentParams, error)
	Trigger(ctx context.Context, msg string) (models.TriggerResponse, error)
	Reset(ctx context.Context) (models.DirectionParams, error)
	WaitNotification(ctx context.Context, timeout time.Duration, method string) (json.RawMessage, error)
}

// Remote runs the action flags against a running service and prints the
// JSON result to out. Returns ErrServiceNotRunning when nothing answers.
func (f *Flags) Remote(ctx context.Context, c APIClient, out io.Writer) error {
	if !c.Running(ctx) {
		return ErrServiceNotRunning
	}

	var (
		res any
		err error
	)
	switch {
	case f.Passed("wait"):
		res, err = c.WaitNotification(ctx, *f.WaitFor, *f.Wait)
	case f.Passed("display"):
		if *f.Display == "" {
			return errors.New("display flag requires a value")
		}
		res, err = c.Display(ctx, *f.Display)
	case *f.Translate:
		if f.Passed("transcript") {
			return errors.New("transcript flag cannot be sent to a running service")
		}
		res, err = c.Translate(ctx)
	case f.Passed("trigger"):
		res, err = c.Trigger(ctx, *f.Trigger)
	case *f.Reset:
		res, err = c.Reset(ctx)
	default:
		res, err = c.Status(ctx)
	}
	if err != nil {
		return fmt.Errorf("failed to call service: %w", err)
	}
	return printJSON(out, res)
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to print result: %w", err)
	}
	return nil
}
