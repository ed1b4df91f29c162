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

package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ZaparooProject/zaparoo-lens/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-lens/pkg/config"
	"github.com/ZaparooProject/zaparoo-lens/pkg/shared/httpclient"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var (
	ErrRequestTimeout   = errors.New("request timed out")
	ErrRequestCancelled = errors.New("request cancelled")
)

const (
	RequestTimeout = 60 * time.Second
	pingTimeout    = 2 * time.Second
)

// APIError is a non-2xx answer from the service.
type APIError struct {
	Message string
	Status  int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// Client talks to a running service's HTTP API.
type Client struct {
	http *httpclient.Client
	base *url.URL
}

// LocalBaseURL turns the configured listen address into a URL the CLI can
// dial. Wildcard hosts are reached through localhost.
func LocalBaseURL(listen string) *url.URL {
	host, port, err := net.SplitHostPort(listen)
	if err != nil {
		host, port = listen, ""
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "localhost"
	}
	if port != "" {
		host = net.JoinHostPort(host, port)
	}
	return &url.URL{Scheme: "http", Host: host}
}

func New(cfg *config.Instance) *Client {
	return NewWithBaseURL(LocalBaseURL(cfg.APIListen()), httpclient.NewClient(RequestTimeout, nil))
}

func NewWithBaseURL(base *url.URL, hc *httpclient.Client) *Client {
	return &Client{http: hc, base: base}
}

func (c *Client) endpoint(path string) string {
	u := *c.base
	u.Path = strings.TrimSuffix(u.Path, "/") + path
	return u.String()
}

func decode[T any](resp *http.Response) (T, error) {
	var out T
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Warn().Err(err).Msg("error closing response body")
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var body models.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Error == "" {
			body.Error = http.StatusText(resp.StatusCode)
		}
		return out, &APIError{Status: resp.StatusCode, Message: body.Error}
	}

	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return out, fmt.Errorf("failed to decode response: %w", err)
	}
	return out, nil
}

func get[T any](ctx context.Context, c *Client, path string) (T, error) {
	resp, err := c.http.GetJSON(ctx, c.endpoint(path))
	if err != nil {
		var zero T
		return zero, fmt.Errorf("failed to call %s: %w", path, err)
	}
	return decode[T](resp)
}

func post[T any](ctx context.Context, c *Client, path string, body any) (T, error) {
	resp, err := c.http.PostJSON(ctx, c.endpoint(path), body)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("failed to call %s: %w", path, err)
	}
	return decode[T](resp)
}

func (c *Client) Status(ctx context.Context) (models.StatusResponse, error) {
	return get[models.StatusResponse](ctx, c, "/api/status")
}

func (c *Client) Translate(ctx context.Context) (models.TranslateResponse, error) {
	return post[models.TranslateResponse](ctx, c, "/api/translate", struct{}{})
}

func (c *Client) Display(ctx context.Context, text string) (models.DisplaySentParams, error) {
	return post[models.DisplaySentParams](ctx, c, "/api/display", models.DisplayRequest{Text: text})
}

func (c *Client) Trigger(ctx context.Context, msg string) (models.TriggerResponse, error) {
	return post[models.TriggerResponse](ctx, c, "/api/trigger", models.TriggerRequest{Message: msg})
}

func (c *Client) Reset(ctx context.Context) (models.DirectionParams, error) {
	return post[models.DirectionParams](ctx, c, "/api/reset", struct{}{})
}

// Running reports whether a service answers on the API address.
func (c *Client) Running(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if _, err := c.Status(ctx); err != nil {
		log.Debug().Err(err).Msg("error checking if service running")
		return false
	}
	return true
}

// WaitNotification blocks until the service pushes a notification named
// method and returns its params. A zero timeout uses RequestTimeout and a
// negative one waits until ctx is done.
func (c *Client) WaitNotification(
	ctx context.Context,
	timeout time.Duration,
	method string,
) (json.RawMessage, error) {
	u := *c.base
	u.Scheme = "ws"
	if c.base.Scheme == "https" {
		u.Scheme = "wss"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/api/ws"

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial websocket: %w", err)
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	defer func() {
		if err := conn.Close(); err != nil {
			log.Warn().Err(err).Msg("error closing websocket")
		}
	}()

	done := make(chan struct{})
	var found *models.NotificationObject

	go func() {
		defer close(done)
		for {
			_, message, err := conn.ReadMessage()
			if err != nil {
				log.Debug().Err(err).Msg("websocket read ended")
				return
			}

			var m models.NotificationObject
			if err := json.Unmarshal(message, &m); err != nil {
				continue
			}
			if m.JSONRPC != "2.0" || m.Method != method {
				continue
			}
			found = &m
			return
		}
	}()

	var timerChan <-chan time.Time
	switch {
	case timeout == 0:
		timer := time.NewTimer(RequestTimeout)
		defer timer.Stop()
		timerChan = timer.C
	case timeout > 0:
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		timerChan = timer.C
	}

	select {
	case <-done:
	case <-timerChan:
		_ = conn.Close()
		<-done
		return nil, ErrRequestTimeout
	case <-ctx.Done():
		_ = conn.Close()
		<-done
		return nil, ErrRequestCancelled
	}

	if found == nil {
		return nil, ErrRequestTimeout
	}
	return found.Params, nil
}
