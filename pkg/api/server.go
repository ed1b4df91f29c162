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
	"io"
	"net"
	"net/http"
	"time"

	"github.com/ZaparooProject/zaparoo-lens/pkg/api/middleware"
	"github.com/ZaparooProject/zaparoo-lens/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-lens/pkg/api/validation"
	"github.com/ZaparooProject/zaparoo-lens/pkg/config"
	"github.com/ZaparooProject/zaparoo-lens/pkg/relay"
	"github.com/ZaparooProject/zaparoo-lens/pkg/service"
	"github.com/ZaparooProject/zaparoo-lens/pkg/transmit"
	"github.com/ZaparooProject/zaparoo-lens/pkg/translate"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/olahol/melody"
	"github.com/rs/zerolog/log"
)

const (
	RequestTimeout  = 60 * time.Second
	maxBodyBytes    = 64 * 1024
	shutdownTimeout = 5 * time.Second
)

// Session is the part of the display session the API drives.
type Session interface {
	Status() models.StatusResponse
	Translate(ctx context.Context) (service.TranslateResult, error)
	Display(ctx context.Context, text string) (transmit.Report, error)
	Trigger(msg string) relay.TriggerMessage
	Reset() relay.Snapshot
	Direction() relay.Snapshot
}

type Server struct {
	svc     Session
	ws      *melody.Melody
	limiter *middleware.IPRateLimiter
	router  chi.Router
}

func NewServer(cfg *config.Instance, svc Session) *Server {
	s := &Server{
		svc:     svc,
		ws:      melody.New(),
		limiter: middleware.NewIPRateLimiter(),
	}

	s.ws.Upgrader.CheckOrigin = func(_ *http.Request) bool { return true }
	s.ws.HandleMessage(handleWSMessage)

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.NoCache)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.APIAllowedOrigins(),
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{},
	}))

	r.Get("/api/ws", func(w http.ResponseWriter, r *http.Request) {
		if err := s.ws.HandleRequest(w, r); err != nil {
			log.Error().Err(err).Msg("handling websocket request")
		}
	})

	r.Group(func(r chi.Router) {
		r.Use(chimiddleware.Timeout(RequestTimeout))
		r.Get("/api/status", s.handleStatus)

		r.Group(func(r chi.Router) {
			r.Use(middleware.HTTPRateLimitMiddleware(s.limiter))
			r.Post("/api/translate", s.handleTranslate)
			r.Post("/api/display", s.handleDisplay)
			r.Post("/api/trigger", s.handleTrigger)
			r.Post("/api/reset", s.handleReset)
		})
	})

	s.router = r
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Broadcast forwards notifications to every websocket client until ctx
// is done or notifications is closed.
func (s *Server) Broadcast(ctx context.Context, notifications <-chan models.Notification) {
	for {
		select {
		case <-ctx.Done():
			return
		case notif, ok := <-notifications:
			if !ok {
				return
			}
			data, err := json.Marshal(models.NotificationObject{
				JSONRPC: "2.0",
				Method:  notif.Method,
				Params:  notif.Params,
			})
			if err != nil {
				log.Error().Err(err).Msg("marshalling notification")
				continue
			}
			if err := s.ws.Broadcast(data); err != nil {
				log.Error().Err(err).Msg("broadcasting notification")
			}
		}
	}
}

func (s *Server) Close() error {
	if err := s.ws.Close(); err != nil {
		return fmt.Errorf("failed to close websocket sessions: %w", err)
	}
	return nil
}

// Start serves the API on the configured listen address until ctx is
// cancelled.
func Start(
	ctx context.Context,
	cfg *config.Instance,
	svc Session,
	notifications <-chan models.Notification,
) error {
	s := NewServer(cfg, svc)
	s.limiter.StartCleanup(ctx)
	go s.Broadcast(ctx, notifications)

	srv := &http.Server{
		Addr:              cfg.APIListen(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("listen", srv.Addr).Msg("starting API server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		_ = s.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to start API server: %w", err)
	case <-ctx.Done():
	}

	if err := s.Close(); err != nil {
		log.Warn().Err(err).Msg("error closing websocket sessions")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down API server: %w", err)
	}
	log.Debug().Msg("API server stopped")
	return nil
}

func handleWSMessage(session *melody.Session, msg []byte) {
	if string(msg) == "ping" {
		if err := session.Write([]byte("pong")); err != nil {
			log.Error().Err(err).Msg("sending pong")
		}
		return
	}
	log.Debug().Int("size", len(msg)).Msg("ignoring websocket message")
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Status())
}

func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Translate(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.TranslateResponse{
		Text:      res.Text,
		Direction: models.NewDirectionParams(res.Direction),
		Report:    res.Report,
		Absent:    res.Absent,
	})
}

func (s *Server) handleDisplay(w http.ResponseWriter, r *http.Request) {
	var req models.DisplayRequest
	if !decodeBody(w, r, &req) {
		return
	}
	report, err := s.svc.Display(r.Context(), req.Text)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.DisplaySentParams{Text: req.Text, Report: report})
}

func (s *Server) handleTrigger(w http.ResponseWriter, r *http.Request) {
	var req models.TriggerRequest
	if !decodeBody(w, r, &req) {
		return
	}
	msg := s.svc.Trigger(req.Message)
	writeJSON(w, http.StatusOK, models.NewTriggerResponse(msg, s.svc.Direction()))
}

func (s *Server) handleReset(w http.ResponseWriter, _ *http.Request) {
	snap := s.svc.Reset()
	writeJSON(w, http.StatusOK, models.NewDirectionParams(snap))
}

func decodeBody[T any](w http.ResponseWriter, r *http.Request, dest *T) bool {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, models.ErrorResponse{Error: "request body too large"})
		return false
	}
	if err := validation.ValidateAndUnmarshal(body, dest); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return false
	}
	return true
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrNoTranscript):
		return http.StatusConflict
	case errors.Is(err, transmit.ErrTransmissionActive):
		return http.StatusConflict
	case errors.Is(err, transmit.ErrTransmission), errors.Is(err, translate.ErrCompletion):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := errorStatus(err)
	log.Error().Err(err).Int("status", status).Msg("API request failed")
	writeJSON(w, status, models.ErrorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("writing API response")
	}
}
