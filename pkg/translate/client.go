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

package translate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ZaparooProject/zaparoo-lens/pkg/config"
	"github.com/ZaparooProject/zaparoo-lens/pkg/shared/httpclient"
	"github.com/rs/zerolog/log"
)

// ErrCompletion is returned for every failed completion request.
var ErrCompletion = errors.New("completion request failed")

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 4096

// Result is the outcome of a completion. Absent is set when the model
// returned no text, which is not an error.
type Result struct {
	Text   string
	Absent bool
}

// Client produces a completion for a request. Implementations must not
// retry on their own.
type Client interface {
	Complete(ctx context.Context, req Request) (Result, error)
}

type completionResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// OpenAIClient talks to an OpenAI compatible chat completions endpoint.
type OpenAIClient struct {
	http *httpclient.Client
	url  string
}

var _ Client = (*OpenAIClient)(nil)

func NewOpenAIClient(url string, client *httpclient.Client) *OpenAIClient {
	return &OpenAIClient{http: client, url: url}
}

// NewOpenAIClientFromConfig reads the endpoint, timeout and API key
// variable from cfg. The key is looked up on every request.
func NewOpenAIClientFromConfig(cfg *config.Instance) *OpenAIClient {
	return NewOpenAIClient(
		cfg.Translation().APIURL,
		httpclient.NewClient(cfg.TranslationTimeout(), cfg.TranslationAPIKey),
	)
}

func (c *OpenAIClient) Complete(ctx context.Context, req Request) (Result, error) {
	resp, err := c.http.PostJSON(ctx, c.url, req)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrCompletion, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("error closing response body")
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("%w: %s", ErrCompletion, describeError(resp))
	}

	var body completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Result{}, fmt.Errorf("%w: failed to decode response: %w", ErrCompletion, err)
	}

	if len(body.Choices) == 0 {
		log.Debug().Msg("completion returned no choices")
		return Result{Absent: true}, nil
	}
	text := body.Choices[0].Message.Content
	if strings.TrimSpace(text) == "" {
		log.Debug().Msg("completion returned empty text")
		return Result{Absent: true}, nil
	}

	return Result{Text: text}, nil
}

func describeError(resp *http.Response) string {
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return fmt.Sprintf("status %d", resp.StatusCode)
	}
	var body errorResponse
	if json.Unmarshal(data, &body) == nil && body.Error.Message != "" {
		return fmt.Sprintf("status %d: %s", resp.StatusCode, body.Error.Message)
	}
	return fmt.Sprintf("status %d", resp.StatusCode)
}
