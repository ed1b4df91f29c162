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

package publishers

import (
	"testing"
	"time"

	"github.com/ZaparooProject/zaparoo-lens/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-lens/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestPublisher(t *testing.T, filter []string) (*MQTTPublisher, *mockMQTTClient) {
	t.Helper()
	client := newMockMQTTClient()
	p, err := NewMQTTPublisherWithFactory("localhost:1883/lens/events", filter, client.factory)
	require.NoError(t, err)
	t.Cleanup(p.Stop)
	return p, client
}

func TestNewMQTTPublisher(t *testing.T) {
	t.Parallel()

	p, err := NewMQTTPublisher("mqtts://user:pw@broker.example.com:8883/lens", []string{"display.sent"})
	require.NoError(t, err)
	assert.Equal(t, "lens", p.Topic())
	assert.Equal(t, "broker.example.com:8883", p.endpoint.Broker)
	assert.True(t, p.endpoint.UseTLS)
	assert.Equal(t, []string{"display.sent"}, p.filter)

	_, err = NewMQTTPublisher("localhost:1883", nil)
	assert.Error(t, err)
}

func TestFromConfig(t *testing.T) {
	t.Parallel()

	cfg, err := config.NewMemoryConfig(config.BaseDefaults)
	require.NoError(t, err)
	off := false
	cfg.SetMQTTPublishers([]config.MQTTPublisher{
		{Path: "localhost:1883/lens/events"},
		{Path: "no-topic"},
		{Path: "localhost:1883/off", Enabled: &off},
	})

	pubs := FromConfig(cfg)
	require.Len(t, pubs, 1)
	assert.Equal(t, "lens/events", pubs[0].Topic())
}

func TestMatchesFilter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		method string
		filter []string
		want   bool
	}{
		{name: "empty filter matches all", filter: []string{}, method: models.NotificationDisplaySent, want: true},
		{name: "nil filter matches all", filter: nil, method: models.NotificationDirectionChanged, want: true},
		{
			name:   "method in filter",
			filter: []string{models.NotificationDisplaySent, models.NotificationConnectionChanged},
			method: models.NotificationDisplaySent,
			want:   true,
		},
		{
			name:   "method not in filter",
			filter: []string{models.NotificationDisplaySent},
			method: models.NotificationDirectionChanged,
			want:   false,
		},
		{name: "case sensitive", filter: []string{"display.sent"}, method: "Display.Sent", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := &MQTTPublisher{filter: tt.filter}
			assert.Equal(t, tt.want, p.matchesFilter(tt.method))
		})
	}
}

func TestStartPublishes(t *testing.T) {
	t.Parallel()

	p, client := newTestPublisher(t, []string{models.NotificationDisplaySent})
	notifications := make(chan models.Notification, 10)
	require.NoError(t, p.Start(notifications))

	client.mu.Lock()
	assert.Contains(t, client.opts.ClientID, ClientIDPrefix)
	client.mu.Unlock()

	notifications <- models.Notification{
		Method: models.NotificationDirectionChanged,
		Params: []byte(`{"name":"B"}`),
	}
	notifications <- models.Notification{
		Method: models.NotificationDisplaySent,
		Params: []byte(`{"text":"Ciao"}`),
	}
	notifications <- models.Notification{Method: models.NotificationDisplaySent}

	assert.Eventually(t, func() bool {
		return len(client.published()) == 2
	}, time.Second, 5*time.Millisecond)

	msgs := client.published()
	assert.Equal(t, "lens/events", msgs[0].topic)
	assert.Equal(t, []byte(`{"text":"Ciao"}`), msgs[0].payload)
	assert.Equal(t, []byte("{}"), msgs[1].payload)
}

func TestStartConnectError(t *testing.T) {
	t.Parallel()

	p, client := newTestPublisher(t, nil)
	client.connectError = assert.AnError

	err := p.Start(make(chan models.Notification))
	assert.ErrorIs(t, err, assert.AnError)
}

func TestStartConnectTimeout(t *testing.T) {
	t.Parallel()

	p, client := newTestPublisher(t, nil)
	client.connectHangs = true

	err := p.Start(make(chan models.Notification))
	require.ErrorIs(t, err, ErrConnectTimeout)
	assert.Equal(t, 1, client.disconnectCall)
}

func TestPublishErrorIsLogged(t *testing.T) {
	t.Parallel()

	p, client := newTestPublisher(t, nil)
	client.publishError = assert.AnError
	notifications := make(chan models.Notification, 1)
	require.NoError(t, p.Start(notifications))

	notifications <- models.Notification{Method: models.NotificationDisplaySent, Params: []byte(`{}`)}
	p.Stop()
	assert.Empty(t, client.published())
}

func TestChannelClosedEndsPublishing(t *testing.T) {
	t.Parallel()

	p, _ := newTestPublisher(t, nil)
	notifications := make(chan models.Notification)
	require.NoError(t, p.Start(notifications))

	close(notifications)
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publisher did not stop on closed channel")
	}
}

func TestStopDisconnects(t *testing.T) {
	t.Parallel()

	p, client := newTestPublisher(t, nil)
	require.NoError(t, p.Start(make(chan models.Notification)))

	p.Stop()
	p.Stop()

	assert.Equal(t, 1, client.disconnectCall)
	assert.False(t, client.IsConnected())
	_, ok := <-p.stopCh
	assert.False(t, ok)
}
