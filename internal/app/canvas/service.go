/*
 *  Licensed to the Apache Software Foundation (ASF) under one
 *  or more contributor license agreements.  See the NOTICE file
 *  distributed with this work for additional information
 *  regarding copyright ownership.  The ASF licenses this file
 *  to you under the Apache License, Version 2.0 (the
 *  "License"); you may not use this file except in compliance
 *  with the License.  You may obtain a copy of the License at
 *
 *   http://www.apache.org/licenses/LICENSE-2.0
 *
 *  Unless required by applicable law or agreed to in writing,
 *  software distributed under the License is distributed on an
 *   * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 *  KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations
 *  under the License.
 */

// Package canvas provides the demo canvas application server: it verifies
// signed_request tokens posted by the platform and drives the OAuth
// redirect flow using the token-extraction helpers.
//
// Usage:
//
//	svc := canvas.NewService(cfg.Canvas, base, transport)
//	svc.Start(ctx)       // serves until ctx is canceled
//	svc.Shutdown(ctx)
package canvas

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/facegraph/facegraph-go/graph"
	"github.com/facegraph/facegraph-go/internal/pkg/config"
	"github.com/facegraph/facegraph-go/oauth"
	"github.com/facegraph/facegraph-go/signedrequest"
	"github.com/facegraph/facegraph-go/urlobject"
)

// Service manages the canvas HTTP endpoints and server lifecycle
type Service struct {
	server     *http.Server
	mux        *http.ServeMux
	listenAddr string

	appID       string
	redirectURI string
	scope       []string
	base        urlobject.URL
	transport   graph.Transport

	mu        sync.RWMutex
	appSecret string
	started   bool
}

// NewService creates a canvas service from configuration. base is the
// graph API root the OAuth endpoints live under.
func NewService(cfg config.CanvasConfig, base urlobject.URL, transport graph.Transport) *Service {
	s := &Service{
		mux:         http.NewServeMux(),
		listenAddr:  cfg.Listen,
		appID:       cfg.AppID,
		appSecret:   cfg.AppSecret,
		redirectURI: cfg.RedirectURI,
		scope:       cfg.Scope,
		base:        base,
		transport:   transport,
	}

	s.mux.HandleFunc("GET /livez", s.handleLive)
	s.mux.HandleFunc("POST /canvas", s.handleCanvas)
	s.mux.HandleFunc("GET /oauth/authorize", s.handleAuthorize)
	s.mux.HandleFunc("GET /oauth/callback", s.handleCallback)

	s.server = &http.Server{
		Addr:    cfg.Listen,
		Handler: CORSMiddleware(s.mux, cfg.CORS),
	}
	return s
}

// Handler exposes the routed handler, mainly for tests.
func (s *Service) Handler() http.Handler {
	return s.server.Handler
}

// SetAppSecret swaps the verification secret, used for configuration
// reload without a restart.
func (s *Service) SetAppSecret(secret string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appSecret = secret
}

func (s *Service) currentSecret() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.appSecret
}

// Start starts the HTTP server and shuts it down when ctx is canceled.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}

	// Start the server in a goroutine
	go func() {
		fmt.Printf("Starting canvas server on %s\n", s.listenAddr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Printf("Canvas server error: %v\n", err)
		}
	}()

	// Monitor context cancellation and shut down the server
	go func() {
		<-ctx.Done()
		if err := s.server.Shutdown(context.Background()); err != nil {
			fmt.Printf("Error shutting down canvas server: %v\n", err)
		}
	}()

	s.started = true
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Service) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.server != nil && s.started {
		s.started = false
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Service) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "UP"})
}

// handleCanvas verifies the signed_request form field the platform posts
// into a canvas page and answers with the decoded payload.
func (s *Service) handleCanvas(w http.ResponseWriter, r *http.Request) {
	token := r.FormValue("signed_request")
	if token == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "missing signed_request field"})
		return
	}

	payload, err := signedrequest.Decode(s.currentSecret(), token)
	if err != nil {
		var formatErr *signedrequest.FormatError
		if errors.As(err, &formatErr) {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
			return
		}
		// Unsupported algorithm and bad signatures are authentication
		// failures, not client formatting mistakes.
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"payload": payload})
}

func (s *Service) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	target := oauth.AuthorizeURL(s.base, s.appID, s.redirectURI, s.scope, "")
	http.Redirect(w, r, target, http.StatusFound)
}

// handleCallback exchanges the authorization code for an access token and
// returns it to the caller; storing it is the host application's problem.
func (s *Service) handleCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "missing code parameter"})
		return
	}

	token, err := oauth.ExchangeCode(r.Context(), s.transport, s.base, s.appID, s.currentSecret(), s.redirectURI, code)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]any{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"access_token": token})
}

func writeJSON(w http.ResponseWriter, status int, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		fmt.Printf("Error writing response: %v\n", err)
	}
}
