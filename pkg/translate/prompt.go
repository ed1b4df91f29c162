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

// Package translate builds chat completion requests from a transcript and
// sends them to an OpenAI compatible endpoint.
package translate

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/ZaparooProject/zaparoo-lens/pkg/config"
	"github.com/ZaparooProject/zaparoo-lens/pkg/relay"
)

const (
	RoleSystem = "system"
	RoleUser   = "user"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is a chat completion request body.
type Request struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

// PromptData is what the prompt templates can refer to.
type PromptData struct {
	InputLanguage  string
	OutputLanguage string
	Context        string
	Transcript     string
}

// Builder renders requests for the current direction.
type Builder struct {
	system      *template.Template
	user        *template.Template
	model       string
	temperature float64
	maxTokens   int
}

//nolint:gocritic // config section copied by value
func NewBuilder(cfg config.Translation) (*Builder, error) {
	system, err := template.New("system").Option("missingkey=error").Parse(cfg.SystemTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse system template: %w", err)
	}
	user, err := template.New("user").Option("missingkey=error").Parse(cfg.UserTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse user template: %w", err)
	}
	return &Builder{
		system:      system,
		user:        user,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}, nil
}

// Build renders a request translating transcript according to snap. The
// system message is left out when its template renders empty.
func (b *Builder) Build(snap relay.Snapshot, transcript string) (Request, error) {
	data := PromptData{
		InputLanguage:  snap.InputLanguage,
		OutputLanguage: snap.OutputLanguage,
		Context:        snap.Context,
		Transcript:     transcript,
	}

	system, err := render(b.system, data)
	if err != nil {
		return Request{}, err
	}
	user, err := render(b.user, data)
	if err != nil {
		return Request{}, err
	}

	req := Request{
		Model:       b.model,
		Temperature: b.temperature,
		MaxTokens:   b.maxTokens,
	}
	if strings.TrimSpace(system) != "" {
		req.Messages = append(req.Messages, Message{Role: RoleSystem, Content: system})
	}
	req.Messages = append(req.Messages, Message{Role: RoleUser, Content: user})
	return req, nil
}

func render(tmpl *template.Template, data PromptData) (string, error) {
	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("failed to render %s prompt: %w", tmpl.Name(), err)
	}
	return sb.String(), nil
}
