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

// Package e2e contains end-to-end tests that run the client against a
// stub graph API server over real HTTP.
package e2e

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/facegraph/facegraph-go/graph"
	"github.com/facegraph/facegraph-go/internal/app/canvas"
	"github.com/facegraph/facegraph-go/internal/pkg/config"
)

const canvasAppSecret = "E2E_APP_SECRET"

// CanvasTestSuite boots the canvas server on a real socket and drives it
// over HTTP, including the OAuth exchange against the stub API.
type CanvasTestSuite struct {
	GraphE2ESuite
	svc       *canvas.Service
	svcCancel context.CancelFunc
	canvasURL string
}

// SetupSuite starts the stub API and then the canvas server wired to it.
func (s *CanvasTestSuite) SetupSuite() {
	s.GraphE2ESuite.SetupSuite()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	s.Require().NoError(err, "Failed to reserve a port for the canvas server")
	addr := listener.Addr().String()
	s.Require().NoError(listener.Close())
	s.canvasURL = "http://" + addr

	cfg := config.CanvasConfig{
		Listen:      addr,
		AppID:       "E2E_APP_ID",
		AppSecret:   canvasAppSecret,
		RedirectURI: s.canvasURL + "/oauth/callback",
		Scope:       []string{"email"},
	}
	s.svc = canvas.NewService(cfg, s.Base, graph.NewHTTPTransport(TestTimeout))

	var ctx context.Context
	ctx, s.svcCancel = context.WithCancel(context.Background())
	s.Require().NoError(s.svc.Start(ctx))
	s.waitForCanvasToStart()
}

// TearDownSuite shuts the canvas server down before closing the stub API.
func (s *CanvasTestSuite) TearDownSuite() {
	if s.svcCancel != nil {
		s.svcCancel()
	}
	if s.svc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.Require().NoError(s.svc.Shutdown(ctx))
	}
	s.GraphE2ESuite.TearDownSuite()
}

func (s *CanvasTestSuite) waitForCanvasToStart() {
	client := &http.Client{Timeout: 5 * time.Second}

	maxRetries := 10
	retryDelay := 500 * time.Millisecond

	for i := 0; i < maxRetries; i++ {
		time.Sleep(retryDelay)
		resp, err := client.Get(s.canvasURL + "/livez")
		if err == nil && resp.StatusCode == http.StatusOK {
			resp.Body.Close()
			return
		}
		if resp != nil {
			resp.Body.Close()
		}
	}

	s.FailNow("Canvas server failed to start within the expected time")
}

func (s *CanvasTestSuite) signToken(secret string, payload map[string]any) string {
	raw, err := json.Marshal(payload)
	s.Require().NoError(err)
	encodedPayload := base64.RawURLEncoding.EncodeToString(raw)

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(encodedPayload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil)) + "." + encodedPayload
}

func (s *CanvasTestSuite) postCanvas(token string) (int, map[string]any) {
	form := url.Values{"signed_request": {token}}
	resp, err := http.Post(s.canvasURL+"/canvas", "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	s.Require().NoError(err)
	defer resp.Body.Close()

	var body map[string]any
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

// TestCanvasPost verifies a platform-signed landing request round trips.
func (s *CanvasTestSuite) TestCanvasPost() {
	token := s.signToken(canvasAppSecret, map[string]any{
		"algorithm": "HMAC-SHA256",
		"user_id":   TestUserID,
		"issued_at": float64(1282925400),
	})

	status, body := s.postCanvas(token)

	s.Equal(http.StatusOK, status)
	payload, ok := body["payload"].(map[string]any)
	s.Require().True(ok)
	s.Equal(TestUserID, payload["user_id"])
}

// TestCanvasPost_Forged verifies a forged token is rejected over the wire.
func (s *CanvasTestSuite) TestCanvasPost_Forged() {
	token := s.signToken("NOT_THE_SECRET", map[string]any{"algorithm": "HMAC-SHA256"})

	status, _ := s.postCanvas(token)

	s.Equal(http.StatusUnauthorized, status)
}

// TestOAuthFlow follows authorize to the API and exchanges the code.
func (s *CanvasTestSuite) TestOAuthFlow() {
	noRedirect := &http.Client{
		Timeout: 5 * time.Second,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	resp, err := noRedirect.Get(s.canvasURL + "/oauth/authorize")
	s.Require().NoError(err)
	resp.Body.Close()
	s.Equal(http.StatusFound, resp.StatusCode)
	location := resp.Header.Get("Location")
	s.Contains(location, s.Server.URL+"/oauth/authorize?")
	s.Contains(location, "client_id=E2E_APP_ID")

	// The platform would redirect the user back with a code; simulate that
	// and let the callback exchange it against the stub API.
	resp, err = http.Get(fmt.Sprintf("%s/oauth/callback?code=%s", s.canvasURL, "E2E_CODE"))
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)

	var body map[string]any
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&body))
	s.Equal(TestAccessToken, body["access_token"])
}
