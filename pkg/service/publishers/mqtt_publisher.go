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

// Package publishers mirrors session notifications to outside systems.
package publishers

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/ZaparooProject/zaparoo-lens/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-lens/pkg/channel/mqttbridge"
	"github.com/ZaparooProject/zaparoo-lens/pkg/config"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"
)

const (
	ClientIDPrefix = "zaparoo-lens-pub-"
	ConnectTimeout = 5 * time.Second
	PublishTimeout = 5 * time.Second
)

var ErrConnectTimeout = errors.New("timed out connecting to MQTT broker")

// MQTTPublisher publishes notification params to a broker topic.
type MQTTPublisher struct {
	client   mqtt.Client
	factory  mqttbridge.ClientFactory
	stopCh   chan struct{}
	endpoint mqttbridge.Endpoint
	filter   []string
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewMQTTPublisher parses path like the MQTT channel driver does. If
// filter is empty every notification is published.
func NewMQTTPublisher(path string, filter []string) (*MQTTPublisher, error) {
	return NewMQTTPublisherWithFactory(path, filter, mqttbridge.DefaultClientFactory)
}

func NewMQTTPublisherWithFactory(
	path string,
	filter []string,
	factory mqttbridge.ClientFactory,
) (*MQTTPublisher, error) {
	ep, err := mqttbridge.ParsePath(path)
	if err != nil {
		return nil, fmt.Errorf("invalid publisher path: %w", err)
	}
	return &MQTTPublisher{
		endpoint: ep,
		filter:   filter,
		factory:  factory,
		stopCh:   make(chan struct{}),
	}, nil
}

// FromConfig builds one publisher per enabled config entry. Entries with
// a bad path are skipped and logged.
func FromConfig(cfg *config.Instance) []*MQTTPublisher {
	entries := cfg.MQTTPublishers()
	pubs := make([]*MQTTPublisher, 0, len(entries))
	for _, e := range entries {
		p, err := NewMQTTPublisher(e.Path, e.Filter)
		if err != nil {
			log.Error().Err(err).Str("path", e.Path).Msg("skipping mqtt publisher")
			continue
		}
		pubs = append(pubs, p)
	}
	return pubs
}

func (p *MQTTPublisher) Topic() string {
	return p.endpoint.Topic
}

// Start connects to the broker and forwards notifications until Stop or
// until notifications is closed.
func (p *MQTTPublisher) Start(notifications <-chan models.Notification) error {
	opts := mqttbridge.NewClientOptions(p.endpoint, ClientIDPrefix)
	opts.SetConnectRetry(true)

	opts.OnConnect = func(_ mqtt.Client) {
		log.Info().Msgf("mqtt publisher: connected to %s", p.endpoint.Broker)
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.Warn().Err(err).Msg("mqtt publisher: connection lost")
	}

	p.client = p.factory(opts)

	token := p.client.Connect()
	if !token.WaitTimeout(ConnectTimeout) {
		p.client.Disconnect(0)
		return ErrConnectTimeout
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %w", err)
	}

	log.Info().Msgf("mqtt publisher: publishing to %s (topic: %s)", p.endpoint.Broker, p.endpoint.Topic)

	p.wg.Add(1)
	go p.publishNotifications(notifications)
	return nil
}

// Stop ends publishing and disconnects. Safe to call more than once.
func (p *MQTTPublisher) Stop() {
	p.stopOnce.Do(func() {
		close(p.stopCh)
		p.wg.Wait()

		if p.client != nil && p.client.IsConnected() {
			log.Debug().Msg("mqtt publisher: disconnecting")
			p.client.Disconnect(250)
		}
	})
}

func (p *MQTTPublisher) publishNotifications(notifications <-chan models.Notification) {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopCh:
			log.Debug().Msg("mqtt publisher: stopping notification publisher")
			return
		case notif, ok := <-notifications:
			if !ok {
				log.Debug().Msg("mqtt publisher: notification channel closed")
				return
			}
			if !p.matchesFilter(notif.Method) {
				continue
			}

			// params only, no JSON-RPC wrapper
			payload := []byte(notif.Params)
			if len(payload) == 0 {
				payload = []byte("{}")
			}

			token := p.client.Publish(p.endpoint.Topic, 0, false, payload)
			if !token.WaitTimeout(PublishTimeout) {
				log.Error().Str("method", notif.Method).Msg("mqtt publisher: publish timed out")
				continue
			}
			if err := token.Error(); err != nil {
				log.Error().Err(err).Msg("mqtt publisher: failed to publish message")
				continue
			}

			log.Debug().Msgf("mqtt publisher: published %s notification", notif.Method)
		}
	}
}

func (p *MQTTPublisher) matchesFilter(method string) bool {
	return len(p.filter) == 0 || slices.Contains(p.filter, method)
}
