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

// Package mqttbridge reaches the display through an MQTT broker. A bridge
// on the device side relays <topic>/cmd and <topic>/mode to the display
// and publishes its output on <topic>/out.
package mqttbridge

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/ZaparooProject/zaparoo-lens/pkg/channel"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"
)

const (
	TopicCommand = "cmd"
	TopicMode    = "mode"
	TopicOut     = "out"
	TopicStatus  = "status"

	ModeRaw    = "raw"
	ModeNormal = "normal"

	ClientIDPrefix = "zaparoo-lens-"
	ConnectTimeout = 5 * time.Second
	qos            = 1
)

// ClientFactory creates an MQTT client, letting tests inject a mock.
type ClientFactory func(opts *mqtt.ClientOptions) mqtt.Client

func DefaultClientFactory(opts *mqtt.ClientOptions) mqtt.Client {
	return mqtt.NewClient(opts)
}

// Transport is a channel.Channel backed by an MQTT broker.
type Transport struct {
	client        mqtt.Client
	clientFactory ClientFactory
	endpoint      Endpoint
	handlers      channel.Handlers
	path          string
	closed        atomic.Bool
}

var _ channel.Channel = (*Transport)(nil)

// New returns an unopened transport for a "broker:port/topic" path.
func New(path string) (*Transport, error) {
	ep, err := ParsePath(path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse MQTT path: %w", err)
	}
	return &Transport{
		endpoint:      ep,
		path:          path,
		clientFactory: DefaultClientFactory,
	}, nil
}

// NewWithFactory is New with a custom client factory.
func NewWithFactory(path string, factory ClientFactory) (*Transport, error) {
	t, err := New(path)
	if err != nil {
		return nil, err
	}
	t.clientFactory = factory
	return t, nil
}

func (t *Transport) topic(suffix string) string {
	return t.endpoint.Topic + "/" + suffix
}

// Open connects to the broker. Subscriptions are renewed on every
// (re)connect, each of which emits the connected status.
func (t *Transport) Open() error {
	opts := NewClientOptions(t.endpoint, ClientIDPrefix)

	opts.OnConnect = func(client mqtt.Client) {
		log.Info().Msgf("mqtt channel: connected to %s", t.endpoint.Broker)

		filters := map[string]byte{
			t.topic(TopicOut):    qos,
			t.topic(TopicStatus): qos,
		}
		token := client.SubscribeMultiple(filters, t.onPublish)
		if token.Wait() && token.Error() != nil {
			log.Error().Err(token.Error()).Msgf("mqtt channel: failed to subscribe to %s", t.endpoint.Topic)
			t.handlers.Status(channel.StatusDisconnected)
			return
		}

		t.handlers.Status(channel.StatusConnected)
	}

	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.Warn().Err(err).Msg("mqtt channel: connection lost")
		t.handlers.Status(channel.StatusDisconnected)
	}

	t.client = t.clientFactory(opts)

	token := t.client.Connect()
	if !token.WaitTimeout(ConnectTimeout) {
		t.client.Disconnect(0)
		t.client = nil
		return errors.New("failed to connect to MQTT broker: connection timeout")
	}
	if err := token.Error(); err != nil {
		t.client.Disconnect(0)
		t.client = nil
		return fmt.Errorf("failed to connect to MQTT broker: %w", err)
	}

	log.Info().Msgf("mqtt channel: opened connection to %s (topic: %s)", t.endpoint.Broker, t.endpoint.Topic)
	return nil
}

func (t *Transport) onPublish(_ mqtt.Client, msg mqtt.Message) {
	payload := string(msg.Payload())
	if payload == "" {
		return
	}

	if msg.Topic() == t.topic(TopicStatus) {
		t.handlers.Status(strings.TrimSpace(payload))
		return
	}

	for _, line := range strings.Split(payload, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		t.handlers.Message(line)
	}
}

func (t *Transport) publish(ctx context.Context, topic, payload string) error {
	if t.closed.Load() || t.client == nil {
		return channel.ErrClosed
	}

	token := t.client.Publish(topic, qos, false, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return fmt.Errorf("publish to %s cancelled: %w", topic, ctx.Err())
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	return nil
}

func (t *Transport) SetRawMode(ctx context.Context, enable bool) error {
	mode := ModeNormal
	if enable {
		mode = ModeRaw
	}
	return t.publish(ctx, t.topic(TopicMode), mode)
}

func (t *Transport) Send(ctx context.Context, command string) error {
	return t.publish(ctx, t.topic(TopicCommand), command)
}

func (t *Transport) Subscribe(h channel.MessageHandler) {
	t.handlers.SetMessage(h)
}

func (t *Transport) SubscribeStatus(h channel.StatusHandler) {
	t.handlers.SetStatus(h)
}

func (t *Transport) Info() string {
	return fmt.Sprintf("mqtt:%s/%s", t.endpoint.Broker, t.endpoint.Topic)
}

func (t *Transport) Close() error {
	if t.closed.Swap(true) {
		return nil
	}
	if t.client != nil && t.client.IsConnected() {
		log.Debug().Msg("mqtt channel: disconnecting")
		t.client.Disconnect(250)
	}
	return nil
}
