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

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ZaparooProject/zaparoo-lens/pkg/api/middleware"
	"github.com/ZaparooProject/zaparoo-lens/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-lens/pkg/config"
	"github.com/ZaparooProject/zaparoo-lens/pkg/relay"
	"github.com/ZaparooProject/zaparoo-lens/pkg/service"
	"github.com/ZaparooProject/zaparoo-lens/pkg/transmit"
	"github.com/ZaparooProject/zaparoo-lens/pkg/translate"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSession struct {
	mock.Mock
}

func (m *mockSession) Status() models.StatusResponse {
	args := m.Called()
	resp, _ := args.Get(0).(models.StatusResponse)
	return resp
}

func (m *mockSession) Translate(ctx context.Context) (service.TranslateResult, error) {
	args := m.Called(ctx)
	res, _ := args.Get(0).(service.TranslateResult)
	if err := args.Error(1); err != nil {
		return res, fmt.Errorf("mock operation failed: %w", err)
	}
	return res, nil
}

func (m *mockSession) Display(ctx context.Context, text string) (transmit.Report, error) {
	args := m.Called(ctx, text)
	report, _ := args.Get(0).(transmit.Report)
	if err := args.Error(1); err != nil {
		return report, fmt.Errorf("mock operation failed: %w", err)
	}
	return report, nil
}

func (m *mockSession) Trigger(msg string) relay.TriggerMessage {
	args := m.Called(msg)
	res, _ := args.Get(0).(relay.TriggerMessage)
	return res
}

func (m *mockSession) Reset() relay.Snapshot {
	args := m.Called()
	snap, _ := args.Get(0).(relay.Snapshot)
	return snap
}

func (m *mockSession) Direction() relay.Snapshot {
	args := m.Called()
	snap, _ := args.Get(0).(relay.Snapshot)
	return snap
}

func newTestServer(t *testing.T) (*Server, *mockSession) {
	t.Helper()

	cfg, err := config.NewMemoryConfig(config.BaseDefaults)
	require.NoError(t, err)

	svc := &mockSession{}
	s := NewServer(cfg, svc)
	t.Cleanup(func() { _ = s.Close() })
	return s, svc
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestStatus(t *testing.T) {
	t.Parallel()
	s, svc := newTestServer(t)

	svc.On("Status").Return(models.StatusResponse{
		Connection: "Connected",
		Channel:    "serial:/dev/ttyACM0",
		RawMode:    true,
	})

	rec := do(t, s.Handler(), http.MethodGet, "/api/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got models.StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Connected", got.Connection)
	assert.Equal(t, "serial:/dev/ttyACM0", got.Channel)
	assert.True(t, got.RawMode)
}

func TestTranslate(t *testing.T) {
	t.Parallel()
	s, svc := newTestServer(t)

	svc.On("Translate", mock.Anything).Return(service.TranslateResult{
		Text:      "Buongiorno",
		Direction: relay.Snapshot{Direction: relay.DirectionB},
		Report:    transmit.Report{Delivery: transmit.DeliveryUnacknowledged, Batches: 1, Sent: 1, Attempts: 2},
	}, nil)

	rec := do(t, s.Handler(), http.MethodPost, "/api/translate", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got models.TranslateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Buongiorno", got.Text)
	assert.Equal(t, "B", got.Direction.Name)
	assert.Equal(t, 1, got.Report.Sent)
	assert.False(t, got.Absent)
}

func TestTranslateErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err    error
		name   string
		status int
	}{
		{name: "no transcript", err: service.ErrNoTranscript, status: http.StatusConflict},
		{name: "busy", err: transmit.ErrTransmissionActive, status: http.StatusConflict},
		{name: "model", err: translate.ErrCompletion, status: http.StatusBadGateway},
		{
			name:   "channel",
			err:    &transmit.Error{Err: errors.New("write failed"), Kind: transmit.KindSend, Attempts: 3},
			status: http.StatusBadGateway,
		},
		{name: "timeout", err: context.DeadlineExceeded, status: http.StatusGatewayTimeout},
		{name: "other", err: errors.New("boom"), status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s, svc := newTestServer(t)
			svc.On("Translate", mock.Anything).Return(service.TranslateResult{}, tt.err)

			rec := do(t, s.Handler(), http.MethodPost, "/api/translate", "")
			assert.Equal(t, tt.status, rec.Code)

			var got models.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.NotEmpty(t, got.Error)
		})
	}
}

func TestDisplay(t *testing.T) {
	t.Parallel()
	s, svc := newTestServer(t)

	report := transmit.Report{Delivery: transmit.DeliveryUnacknowledged, Batches: 1, Sent: 1, Attempts: 2}
	svc.On("Display", mock.Anything, "Hello").Return(report, nil)

	rec := do(t, s.Handler(), http.MethodPost, "/api/display", `{"text":"Hello"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var got models.DisplaySentParams
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Hello", got.Text)
	assert.Equal(t, report, got.Report)
	svc.AssertExpectations(t)
}

func TestDisplayRejectsBadBodies(t *testing.T) {
	t.Parallel()

	bodies := map[string]string{
		"empty":     "",
		"malformed": `{"text":`,
		"missing":   `{}`,
		"blank":     `{"text":"   "}`,
		"too long":  fmt.Sprintf(`{"text":%q}`, strings.Repeat("a", 4001)),
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			s, svc := newTestServer(t)

			rec := do(t, s.Handler(), http.MethodPost, "/api/display", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			svc.AssertNotCalled(t, "Display", mock.Anything, mock.Anything)
		})
	}
}

func TestTrigger(t *testing.T) {
	t.Parallel()
	s, svc := newTestServer(t)

	svc.On("Trigger", " trigger b ").Return(relay.TriggerMessage{
		Raw:     " trigger b ",
		Trimmed: "trigger b",
		Kind:    relay.TriggerB,
	})
	svc.On("Direction").Return(relay.Snapshot{Direction: relay.DirectionB})

	rec := do(t, s.Handler(), http.MethodPost, "/api/trigger", `{"message":" trigger b "}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var got models.TriggerResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.True(t, got.Matched)
	assert.Equal(t, "trigger b", got.Kind)
	assert.Equal(t, "B", got.Direction.Name)
}

func TestTriggerUnrecognised(t *testing.T) {
	t.Parallel()
	s, svc := newTestServer(t)

	svc.On("Trigger", "hello").Return(relay.TriggerMessage{Raw: "hello", Trimmed: "hello"})
	svc.On("Direction").Return(relay.Snapshot{})

	rec := do(t, s.Handler(), http.MethodPost, "/api/trigger", `{"message":"hello"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var got models.TriggerResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.False(t, got.Matched)
	assert.Equal(t, "none", got.Kind)
	assert.Equal(t, "A", got.Direction.Name)
}

func TestReset(t *testing.T) {
	t.Parallel()
	s, svc := newTestServer(t)

	svc.On("Reset").Return(relay.Snapshot{Direction: relay.DirectionA})

	rec := do(t, s.Handler(), http.MethodPost, "/api/reset", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got models.DirectionParams
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "A", got.Name)
	svc.AssertExpectations(t)
}

func TestPostsAreRateLimited(t *testing.T) {
	t.Parallel()
	s, svc := newTestServer(t)
	svc.On("Reset").Return(relay.Snapshot{})
	svc.On("Status").Return(models.StatusResponse{})

	for range middleware.BurstSize {
		assert.Equal(t, http.StatusOK, do(t, s.Handler(), http.MethodPost, "/api/reset", "").Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, do(t, s.Handler(), http.MethodPost, "/api/reset", "").Code)
	assert.Equal(t, http.StatusOK, do(t, s.Handler(), http.MethodGet, "/api/status", "").Code)
}

func TestUnknownRoute(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)

	assert.Equal(t, http.StatusNotFound, do(t, s.Handler(), http.MethodGet, "/api/nope", "").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, s.Handler(), http.MethodGet, "/api/reset", "").Code)
}

func TestCORSPreflight(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/display", http.NoBody)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestWebsocketNotifications(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	defer func() { _ = conn.Close() }()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("ping")))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "pong", string(msg))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	notifications := make(chan models.Notification, 1)
	go s.Broadcast(ctx, notifications)

	notifications <- models.Notification{
		Method: models.NotificationConnectionChanged,
		Params: json.RawMessage(`{"from":"Connecting","to":"Connected"}`),
	}

	_, msg, err = conn.ReadMessage()
	require.NoError(t, err)

	var got models.NotificationObject
	require.NoError(t, json.Unmarshal(msg, &got))
	assert.Equal(t, "2.0", got.JSONRPC)
	assert.Equal(t, models.NotificationConnectionChanged, got.Method)
	assert.JSONEq(t, `{"from":"Connecting","to":"Connected"}`, string(got.Params))
}

func TestBroadcastStopsOnClosedChannel(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)

	notifications := make(chan models.Notification)
	done := make(chan struct{})
	go func() {
		s.Broadcast(context.Background(), notifications)
		close(done)
	}()

	close(notifications)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcast did not stop")
	}
}

func TestStartStopsOnCancel(t *testing.T) {
	t.Parallel()

	cfg, err := config.NewMemoryConfig(config.BaseDefaults)
	require.NoError(t, err)
	cfg.SetAPIListen("127.0.0.1:0")

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- Start(ctx, cfg, &mockSession{}, make(chan models.Notification))
	}()

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestStartBadAddress(t *testing.T) {
	t.Parallel()

	cfg, err := config.NewMemoryConfig(config.BaseDefaults)
	require.NoError(t, err)
	cfg.SetAPIListen("256.0.0.1:-1")

	err = Start(context.Background(), cfg, &mockSession{}, make(chan models.Notification))
	assert.Error(t, err)
}
