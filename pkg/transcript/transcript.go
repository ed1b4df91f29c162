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

// Package transcript supplies the latest speech-to-text output to be
// translated.
package transcript

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZaparooProject/zaparoo-lens/pkg/helpers/syncutil"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// Source returns the most recent transcript.
type Source interface {
	Latest() string
}

// StaticSource holds a transcript set by the caller.
type StaticSource struct {
	text string
	mu   syncutil.RWMutex
}

func NewStaticSource(text string) *StaticSource {
	return &StaticSource{text: text}
}

func (s *StaticSource) Set(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.text = text
}

func (s *StaticSource) Latest() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.text
}

// FileSource follows a file rewritten by an external speech-to-text tool.
// The whole file is the transcript.
type FileSource struct {
	path string
	text string
	mu   syncutil.RWMutex
}

// NewFileSource reads path once. A missing file yields an empty
// transcript until it is created.
func NewFileSource(path string) (*FileSource, error) {
	if path == "" {
		return nil, errors.New("transcript path is empty")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve transcript path: %w", err)
	}
	s := &FileSource{path: abs}
	if err := s.reload(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileSource) Path() string {
	return s.path
}

func (s *FileSource) Latest() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.text
}

func (s *FileSource) reload() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		data = nil
	} else if err != nil {
		return fmt.Errorf("failed to read transcript: %w", err)
	}

	text := strings.TrimSpace(string(data))
	s.mu.Lock()
	changed := s.text != text
	s.text = text
	s.mu.Unlock()

	if changed {
		log.Debug().Int("length", len(text)).Msg("transcript updated")
	}
	return nil
}

// Run watches the transcript's directory, so files replaced by rename
// are picked up too, until ctx is done.
func (s *FileSource) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create transcript watcher: %w", err)
	}
	defer func() {
		if err := watcher.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close transcript watcher")
		}
	}()

	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		return fmt.Errorf("failed to watch transcript directory: %w", err)
	}
	log.Info().Str("path", s.path).Msg("watching transcript file")

	// catch writes made before the watch was in place
	if err := s.reload(); err != nil {
		log.Error().Err(err).Msg("failed to reload transcript")
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != s.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if err := s.reload(); err != nil {
				log.Error().Err(err).Msg("failed to reload transcript")
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error().Err(err).Msg("error in transcript watcher")
		}
	}
}
