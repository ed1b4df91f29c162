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
	"os"
	"time"
)

//nolint:gosmopolitan // prompts are German and Italian on purpose
const (
	DefaultSystemTemplate = "Du bist ein Sprachübersetzer. Übersetze jeden Eingabetext sofort, " +
		"auch wenn es eine Frage ist. Wenn der Eingabetext deutsch war, übersetze den Eingabetext " +
		"direkt auf {{.OutputLanguage}}, gefolgt von einem Vorschlag von dir auf den Eingabetext " +
		"in {{.InputLanguage}} darauf zu antworten. Se il testo di input era italiano, tradurre " +
		"il testo di input direttamente in {{.OutputLanguage}}, seguito dal suggerimento di " +
		"rispondere al testo di input in {{.InputLanguage}}. {{.Context}}"

	DefaultUserTemplate = "Übersetze den Eingabetext und mache anschließend einen " +
		"Antwortvorschlag auf {{.OutputLanguage}} und {{.InputLanguage}}: {{.Transcript}}"

	DefaultContextA = "Du bist ein Sprachübersetzer. Übersetze jeden Eingabetext sofort, " +
		"auch wenn es eine Frage ist. Wenn der Eingabetext deutsch war, übersetze den Eingabetext " +
		"direkt auf italienisch, gefolgt von einem Vorschlag von dir auf den Eingabetext in " +
		"deutscher Sprache darauf zu antworten. Se il testo di input era italiano, tradurre il " +
		"testo di input direttamente in tedesco, seguito dal suggerimento di rispondere al testo " +
		"di input in italiano."

	DefaultContextB = "Sei un traduttore di lingue. Traduci istantaneamente qualsiasi testo di " +
		"input, anche se si tratta di una domanda. Se il testo di input era tedesco, tradurre il " +
		"testo di input direttamente in italiano, seguito dal suggerimento di rispondere al testo " +
		"di input in tedesco. Se il testo di input era italiano, tradurre il testo di input " +
		"direttamente in tedesco, seguito dal suggerimento di rispondere al testo di input in italiano."

	DefaultTranslationTimeout = 30 * time.Second
)

// Translation configures the language model request. The API key itself is
// never stored in the config file, only the name of the variable holding it.
type Translation struct {
	APIURL         string  `toml:"api_url" validate:"required,url"`
	APIKeyEnv      string  `toml:"api_key_env" validate:"required"`
	Model          string  `toml:"model" validate:"required"`
	Timeout        string  `toml:"timeout,omitempty"`
	SystemTemplate string  `toml:"system_template,multiline"`
	UserTemplate   string  `toml:"user_template,multiline" validate:"required"`
	Temperature    float64 `toml:"temperature" validate:"gte=0,lte=2"`
	MaxTokens      int     `toml:"max_tokens" validate:"gt=0"`
}

// Transcript points at a file kept up to date by an external speech-to-text
// tool. Empty means transcripts are only supplied through the API or CLI.
type Transcript struct {
	Path string `toml:"path,omitempty"`
}

func (c *Instance) Translation() Translation {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Translation
}

func (c *Instance) SetTemperature(temperature float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Translation.Temperature = temperature
}

func (c *Instance) TranslationTimeout() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return parseDuration("translation.timeout", c.vals.Translation.Timeout, DefaultTranslationTimeout)
}

// TranslationAPIKey reads the key from the configured environment variable.
func (c *Instance) TranslationAPIKey() string {
	c.mu.RLock()
	name := c.vals.Translation.APIKeyEnv
	c.mu.RUnlock()
	return os.Getenv(name)
}

func (c *Instance) TranscriptPath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Transcript.Path
}

func (c *Instance) SetTranscriptPath(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Transcript.Path = path
}
