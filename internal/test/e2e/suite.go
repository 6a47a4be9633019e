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
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/facegraph/facegraph-go/graph"
	"github.com/facegraph/facegraph-go/urlobject"
)

const (
	TestAccessToken = "E2E_ACCESS_TOKEN"
	TestUserID      = "1503223370"
	TestTimeout     = 30 * time.Second
)

// GraphE2ESuite is the base suite: it runs a stub graph API server and
// builds clients addressed at it.
type GraphE2ESuite struct {
	suite.Suite
	Server *httptest.Server
	Base   urlobject.URL
}

// SetupSuite starts the stub API server for all tests in the suite.
func (s *GraphE2ESuite) SetupSuite() {
	s.Server = httptest.NewServer(http.HandlerFunc(s.serveGraphAPI))
	s.Base = urlobject.MustParse(s.Server.URL + "/")
}

// TearDownSuite stops the stub API server.
func (s *GraphE2ESuite) TearDownSuite() {
	if s.Server != nil {
		s.Server.Close()
	}
}

// Client returns a graph client rooted at the stub server.
func (s *GraphE2ESuite) Client() *graph.Graph {
	return graph.New(TestAccessToken,
		graph.WithBase(s.Base),
		graph.WithTransport(graph.NewHTTPTransport(TestTimeout)))
}

// AnonymousClient returns a client without a credential.
func (s *GraphE2ESuite) AnonymousClient() *graph.Graph {
	return graph.New("",
		graph.WithBase(s.Base),
		graph.WithTransport(graph.NewHTTPTransport(TestTimeout)))
}

// serveGraphAPI implements just enough of the graph API surface for the
// scenarios under test.
func (s *GraphE2ESuite) serveGraphAPI(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/oauth/access_token" {
		s.serveAccessToken(w, r)
		return
	}

	if token := r.FormValue("access_token"); token != TestAccessToken {
		writeGraphError(w, 190, "OAuthException", "Invalid OAuth access token.")
		return
	}

	if r.Method == http.MethodPost {
		s.servePost(w, r)
		return
	}

	switch r.URL.Path {
	case "/me":
		writeBody(w, fmt.Sprintf(`{"id": %q, "name": "Alice Example", "website": "http://example.com/"}`, TestUserID))
	case "/" + TestUserID:
		writeBody(w, fmt.Sprintf(`{"id": %q, "name": "Alice Example"}`, TestUserID))
	case "/me/friends":
		s.serveFriends(w, r)
	case "/121481007877204":
		writeBody(w, `{"id": "121481007877204", "name": "Facebook Platform", "category": "Technology"}`)
	case "/search":
		s.serveSearch(w, r)
	default:
		// Like the live API, the unknown-alias envelope carries no code
		// field; the number only appears in the message prefix.
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprintf(w, `{"error": {"type": "OAuthException", "message": "(#803) Some of the aliases you requested do not exist: %s"}}`, r.URL.Path[1:])
	}
}

// serveFriends pages a two-entry list one entry at a time so paging links
// get exercised over the wire.
func (s *GraphE2ESuite) serveFriends(w http.ResponseWriter, r *http.Request) {
	if r.FormValue("offset") == "1" {
		writeBody(w, fmt.Sprintf(`{"data": [{"id": "2", "name": "Second Friend"}], "paging": {"previous": %q}}`,
			s.Server.URL+"/me/friends?offset=0&limit=1&access_token="+TestAccessToken))
		return
	}
	writeBody(w, fmt.Sprintf(`{"data": [{"id": "1", "name": "First Friend"}], "paging": {"next": %q}}`,
		s.Server.URL+"/me/friends?offset=1&limit=1&access_token="+TestAccessToken))
}

func (s *GraphE2ESuite) serveSearch(w http.ResponseWriter, r *http.Request) {
	if r.FormValue("q") == "" {
		writeGraphError(w, 100, "GraphMethodException", "Unsupported search request.")
		return
	}
	writeBody(w, fmt.Sprintf(`{"data": [{"message": "first hit about %[1]s", "type": %[2]q}, {"message": "second hit", "type": %[2]q}]}`,
		r.FormValue("q"), r.FormValue("type")))
}

// servePost answers wall posts and method=delete tunneled deletions.
func (s *GraphE2ESuite) servePost(w http.ResponseWriter, r *http.Request) {
	if r.FormValue("method") == "delete" {
		writeBody(w, "true")
		return
	}
	if r.URL.Path == "/me/feed" {
		if r.FormValue("message") == "" {
			writeGraphError(w, 100, "GraphMethodException", "(#100) Missing message or attachment.")
			return
		}
		writeBody(w, fmt.Sprintf(`{"id": "%s_87654321"}`, TestUserID))
		return
	}
	writeGraphError(w, 3, "GraphMethodException", "Unsupported post request.")
}

func (s *GraphE2ESuite) serveAccessToken(w http.ResponseWriter, r *http.Request) {
	if r.FormValue("client_id") == "" || r.FormValue("client_secret") == "" || r.FormValue("code") == "" {
		writeGraphError(w, 101, "OAuthException", "Missing client_id parameter.")
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintf(w, "access_token=%s&expires=5000", TestAccessToken)
}

func writeBody(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, body)
}

func writeGraphError(w http.ResponseWriter, code int, errType, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	payload := map[string]any{"error": map[string]any{"code": code, "type": errType, "message": message}}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		fmt.Printf("Error writing stub response: %v\n", err)
	}
}

// RunE2ETests runs the test suite with the provided test cases
func RunE2ETests(t *testing.T, testCases ...suite.TestingSuite) {
	for _, testCase := range testCases {
		suite.Run(t, testCase)
	}
}
