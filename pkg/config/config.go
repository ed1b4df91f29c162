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

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ZaparooProject/zaparoo-lens/pkg/api/validation"
	"github.com/ZaparooProject/zaparoo-lens/pkg/helpers/syncutil"
	"github.com/google/uuid"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

const (
	SchemaVersion = 1
	CfgEnv        = "ZAPAROO_LENS_CFG"
	CfgFile       = "lens.toml"
	LogFile       = "lens.log"
	AppName       = "zaparoo-lens"
)

var AppVersion = "DEVELOPMENT"

type Values struct {
	Directions   Directions  `toml:"directions"`
	Translation  Translation `toml:"translation"`
	Channel      Channel     `toml:"channel"`
	Connection   Connection  `toml:"connection"`
	Relay        Relay       `toml:"relay"`
	Transcript   Transcript  `toml:"transcript,omitempty"`
	Transmit     Transmit    `toml:"transmit"`
	API          API         `toml:"api"`
	Publishers   Publishers  `toml:"publishers,omitempty"`
	SessionID    string      `toml:"session_id,omitempty"`
	Display      Display     `toml:"display"`
	ConfigSchema int         `toml:"config_schema"`
	DebugLogging bool        `toml:"debug_logging"`
}

var BaseDefaults = Values{
	ConfigSchema: SchemaVersion,
	Channel: Channel{
		Driver:   ChannelDriverSerial,
		Path:     "/dev/ttyACM0",
		BaudRate: 115200,
	},
	Display: Display{
		ChunkStrategy: ChunkStrategyFixed,
		Form:          FormStatements,
		BlockSize:     30,
		MaxLines:      6,
		GroupSize:     6,
		RowHeight:     50,
		Color:         0xffffff,
		Pacing:        "2500ms",
	},
	Transmit: Transmit{
		SendRetries: 2,
		RetryDelay:  "250ms",
	},
	Relay: Relay{
		TriggerA: "trigger a",
		TriggerB: "trigger b",
	},
	Connection: Connection{
		ConnectedStatus:    "Connected",
		DisconnectedStatus: "Disconnected",
		LivenessTimeout:    "30s",
		HeartbeatInterval:  "10s",
		HeartbeatCommand:   "pass",
	},
	Translation: Translation{
		APIURL:         "https://api.openai.com/v1/chat/completions",
		APIKeyEnv:      "OPENAI_API_KEY",
		Model:          "gpt-3.5-turbo",
		Temperature:    0.9,
		MaxTokens:      2000,
		Timeout:        "30s",
		SystemTemplate: DefaultSystemTemplate,
		UserTemplate:   DefaultUserTemplate,
	},
	Directions: Directions{
		A: DirectionProfile{
			InputLanguage:  "de",
			OutputLanguage: "it",
			Icon:           "swiss.png",
			Context:        DefaultContextA,
		},
		B: DirectionProfile{
			InputLanguage:  "it",
			OutputLanguage: "de",
			Icon:           "italy.png",
			Context:        DefaultContextB,
		},
	},
	API: API{
		Enabled: true,
		Listen:  "127.0.0.1:7498",
	},
}

type Instance struct {
	fs       afero.Fs
	cfgPath  string
	vals     Values
	defaults Values
	mu       syncutil.RWMutex
}

// NewConfig loads the config from configDir on the real filesystem, writing
// the defaults to disk first if no file exists yet.
//
//nolint:gocritic // config struct copied for immutability
func NewConfig(configDir string, defaults Values) (*Instance, error) {
	return NewConfigWithFs(afero.NewOsFs(), configDir, defaults)
}

//nolint:gocritic // config struct copied for immutability
func NewConfigWithFs(fs afero.Fs, configDir string, defaults Values) (*Instance, error) {
	cfgPath := os.Getenv(CfgEnv)
	log.Debug().Msgf("env config path: %s", cfgPath)

	if cfgPath == "" {
		cfgPath = filepath.Join(configDir, CfgFile)
	}

	cfg := Instance{
		fs:       fs,
		cfgPath:  cfgPath,
		vals:     defaults,
		defaults: defaults,
	}

	exists, err := afero.Exists(fs, cfgPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}

	if !exists {
		log.Info().Msg("saving new default config to disk")

		err := fs.MkdirAll(filepath.Dir(cfgPath), 0o750)
		if err != nil {
			return nil, fmt.Errorf("failed to create config directory: %w", err)
		}

		err = cfg.Save()
		if err != nil {
			return nil, err
		}
	}

	err = cfg.Load()
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}

// NewMemoryConfig returns an Instance backed by an in-memory filesystem,
// used by tests and one-shot CLI runs.
//
//nolint:gocritic // config struct copied for immutability
func NewMemoryConfig(defaults Values) (*Instance, error) {
	return NewConfigWithFs(afero.NewMemMapFs(), "/config", defaults)
}

func (c *Instance) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cfgPath == "" {
		return errors.New("config path not set")
	}

	data, err := afero.ReadFile(c.fs, c.cfgPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults, then unmarshal file values on top.
	newVals := c.defaults
	err = toml.Unmarshal(data, &newVals)
	if err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if newVals.ConfigSchema != SchemaVersion {
		log.Error().Msgf(
			"schema version mismatch: got %d, expecting %d",
			newVals.ConfigSchema,
			SchemaVersion,
		)
		return errors.New("schema version mismatch")
	}

	if err := validation.DefaultValidator.Validate(&newVals); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	c.vals = newVals
	return nil
}

func (c *Instance) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cfgPath == "" {
		return errors.New("config path not set")
	}

	c.vals.ConfigSchema = SchemaVersion

	if c.vals.SessionID == "" {
		newID := uuid.New().String()
		c.vals.SessionID = newID
		log.Info().Msgf("generated new session id: %s", newID)
	}

	data, err := toml.Marshal(&c.vals)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := afero.WriteFile(c.fs, c.cfgPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func (c *Instance) Path() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cfgPath
}

func (c *Instance) SessionID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.SessionID
}

func (c *Instance) DebugLogging() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.DebugLogging
}

func (c *Instance) SetDebugLogging(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.DebugLogging = enabled
	if enabled {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// parseDuration parses a config duration string, falling back to def when
// the value is empty or invalid.
func parseDuration(name, value string, def time.Duration) time.Duration {
	if value == "" {
		return def
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Warn().Err(err).Str("key", name).Msgf("invalid duration %q, using %s", value, def)
		return def
	}
	return d
}
