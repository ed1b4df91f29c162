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
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ZaparooProject/zaparoo-lens/pkg/config"
	"github.com/ZaparooProject/zaparoo-lens/pkg/service"
	"github.com/ZaparooProject/zaparoo-lens/pkg/testing/mocks"
	"github.com/ZaparooProject/zaparoo-lens/pkg/transcript"
	"github.com/ZaparooProject/zaparoo-lens/pkg/translate"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type syncBuffer struct {
	buf bytes.Buffer
	mu  sync.Mutex
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p) //nolint:wrapcheck // bytes.Buffer never fails
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newRunConfig(t *testing.T) *config.Instance {
	t.Helper()
	cfg, err := config.NewMemoryConfig(config.BaseDefaults)
	require.NoError(t, err)
	cfg.SetAPIEnabled(false)
	return cfg
}

func newRunOptions(ch *mocks.MockChannel, tr *mocks.MockTranslator) service.Options {
	return service.Options{
		Transport:  &mocks.MockTransport{MockChannel: ch},
		Translator: tr,
		Transcript: transcript.NewStaticSource(""),
		Clock:      clockwork.NewFakeClock(),
	}
}

func TestRunOnceDisplay(t *testing.T) {
	t.Parallel()

	ch := mocks.NewMockChannel()
	var out bytes.Buffer
	err := parseFlags(t, "-display", "Hello").
		RunOnce(context.Background(), newRunConfig(t), newRunOptions(ch, &mocks.MockTranslator{}), &out)
	require.NoError(t, err)

	ch.AssertCalled(t, "SetRawMode", mock.Anything, true)
	ch.AssertCalled(t, "Send", mock.Anything,
		`import display;display.text("Hello", 0, 0, 0xffffff);display.show();`)
	ch.AssertCalled(t, "Close")
	assert.Contains(t, out.String(), `"sent": 1`)
}

func TestRunOnceTranslateWithTranscript(t *testing.T) {
	t.Parallel()

	ch := mocks.NewMockChannel()
	tr := &mocks.MockTranslator{}
	tr.On("Complete", mock.Anything, mock.MatchedBy(func(req translate.Request) bool {
		last := req.Messages[len(req.Messages)-1]
		return strings.Contains(last.Content, "Guten Morgen")
	})).Return(translate.Result{Text: "Buongiorno"}, nil)

	var out bytes.Buffer
	err := parseFlags(t, "-translate", "-transcript", "Guten Morgen").
		RunOnce(context.Background(), newRunConfig(t), newRunOptions(ch, tr), &out)
	require.NoError(t, err)

	assert.Contains(t, out.String(), `"text": "Buongiorno"`)
	ch.AssertCalled(t, "Send", mock.Anything,
		`import display;display.text("Buongiorno", 0, 0, 0xffffff);display.show();`)
	tr.AssertExpectations(t)
}

func TestRunOnceTranslateWithoutTranscript(t *testing.T) {
	t.Parallel()

	ch := mocks.NewMockChannel()
	err := parseFlags(t, "-translate").
		RunOnce(context.Background(), newRunConfig(t), newRunOptions(ch, &mocks.MockTranslator{}), io.Discard)
	require.ErrorIs(t, err, service.ErrNoTranscript)
	ch.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestRunOnceTriggerAndStatus(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	err := parseFlags(t, "-trigger", " trigger b ").
		RunOnce(context.Background(), newRunConfig(t), newRunOptions(mocks.NewMockChannel(), &mocks.MockTranslator{}), &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), `"kind": "trigger b"`)
	assert.Contains(t, out.String(), `"name": "B"`)

	out.Reset()
	err = parseFlags(t, "-status").
		RunOnce(context.Background(), newRunConfig(t), newRunOptions(mocks.NewMockChannel(), &mocks.MockTranslator{}), &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), `"connection": "Disconnected"`)
}

func TestRunOnceRejects(t *testing.T) {
	t.Parallel()

	ch := mocks.NewMockChannel()
	err := parseFlags(t, "-wait", "display.sent").
		RunOnce(context.Background(), newRunConfig(t), newRunOptions(ch, &mocks.MockTranslator{}), io.Discard)
	require.Error(t, err)

	err = parseFlags(t, "-display", "").
		RunOnce(context.Background(), newRunConfig(t), newRunOptions(ch, &mocks.MockTranslator{}), io.Discard)
	require.Error(t, err)
}

func TestServePrintsNotifications(t *testing.T) {
	t.Parallel()

	ch := mocks.NewMockChannel()
	out := &syncBuffer{}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, newRunConfig(t), newRunOptions(ch, &mocks.MockTranslator{}), out)
	}()

	assert.Eventually(t, func() bool {
		return strings.Contains(out.String(), `"method": "connection.changed"`)
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("serve did not stop")
	}
	ch.AssertCalled(t, "Close")
}
