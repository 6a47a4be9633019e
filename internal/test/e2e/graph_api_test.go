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
	"errors"

	"github.com/facegraph/facegraph-go/graph"
	"github.com/facegraph/facegraph-go/urlobject"
)

// GraphAPITestSuite exercises read, write, delete and search flows.
type GraphAPITestSuite struct {
	GraphE2ESuite
}

// TestReadProfile fetches the authenticated profile.
func (s *GraphAPITestSuite) TestReadProfile() {
	result, err := s.Client().Attr("me").Get(context.Background())
	s.Require().NoError(err)

	node, ok := result.(*graph.Node)
	s.Require().True(ok, "object responses decode to a node")
	s.Equal(TestUserID, node.GetString("id"))
	s.Equal("Alice Example", node.GetString("name"))
}

// TestReadItemByID fetches an object addressed by numeric identifier.
func (s *GraphAPITestSuite) TestReadItemByID() {
	result, err := s.Client().Item(121481007877204).Get(context.Background())
	s.Require().NoError(err)

	node := result.(*graph.Node)
	s.Equal("Facebook Platform", node.GetString("name"))
	s.Equal("Technology", node.GetString("category"))
}

// TestMissFallthrough follows a key absent from the decoded payload into
// a fresh fetch of the corresponding connection.
func (s *GraphAPITestSuite) TestMissFallthrough() {
	result, err := s.Client().Attr("me").Get(context.Background())
	s.Require().NoError(err)
	me := result.(*graph.Node)

	// "friends" is not in the profile payload, so the lookup yields a new
	// addressable rooted one segment deeper, credential intact.
	friends, ok := me.Get("friends").(*graph.Graph)
	s.Require().True(ok)

	page, err := friends.Get(context.Background())
	s.Require().NoError(err)
	s.Equal("First Friend", page.(*graph.Node).Get("data").([]*graph.Node)[0].GetString("name"))
}

// TestPaging walks forward and back through a windowed connection.
func (s *GraphAPITestSuite) TestPaging() {
	ctx := context.Background()

	result, err := s.Client().Attr("me").Attr("friends").Slice(0, 1).Get(ctx)
	s.Require().NoError(err)
	first := result.(*graph.Node)
	s.Equal("First Friend", first.Get("data").([]*graph.Node)[0].GetString("name"))

	next := first.NextPage()
	s.Require().NotNil(next)
	result, err = next.Get(ctx)
	s.Require().NoError(err)
	second := result.(*graph.Node)
	s.Equal("Second Friend", second.Get("data").([]*graph.Node)[0].GetString("name"))

	s.Require().NotNil(second.PreviousPage())
	s.Nil(second.NextPage())
}

// TestPublishAndDelete posts to the feed and deletes the created object.
func (s *GraphAPITestSuite) TestPublishAndDelete() {
	ctx := context.Background()

	result, err := s.Client().Attr("me").Attr("feed").Post(ctx, graph.Params{"message": "Hello from the suite"})
	s.Require().NoError(err)
	postID := result.(*graph.Node).GetString("id")
	s.Require().NotEmpty(postID)

	deleted, err := s.Client().Item(postID).Delete(ctx)
	s.Require().NoError(err)
	s.True(deleted)
}

// TestSearch runs a public search with criteria.
func (s *GraphAPITestSuite) TestSearch() {
	result, err := s.Client().Search(context.Background(), graph.Params{"q": "watermelon", "type": "post"})
	s.Require().NoError(err)

	hits := result.(*graph.Node).Get("data").([]*graph.Node)
	s.Require().Len(hits, 2)
	s.Contains(hits[0].GetString("message"), "watermelon")
	s.Equal("post", hits[0].GetString("type"))
}

// TestServerErrorSurface decodes API error envelopes into typed errors.
func (s *GraphAPITestSuite) TestServerErrorSurface() {
	_, err := s.AnonymousClient().Attr("me").Get(context.Background())

	var graphErr *graph.GraphError
	s.Require().ErrorAs(err, &graphErr)
	s.Equal(190, graphErr.Code)
	s.Equal("OAuthException", graphErr.Type)
}

// TestErrorCodeFromMessage recovers the numeric code embedded in the
// message when the envelope carries none.
func (s *GraphAPITestSuite) TestErrorCodeFromMessage() {
	_, err := s.Client().Attr("no-such-alias").Get(context.Background())

	var graphErr *graph.GraphError
	s.Require().ErrorAs(err, &graphErr)
	s.Equal(803, graphErr.Code)
}

// TestTransportFailure surfaces sub-HTTP failures distinctly from API errors.
func (s *GraphAPITestSuite) TestTransportFailure() {
	// Point at a closed port.
	closed := graph.New(TestAccessToken,
		graph.WithBase(urlobject.MustParse("http://127.0.0.1:1/")),
		graph.WithTransport(graph.NewHTTPTransport(TestTimeout)))
	_, err := closed.Attr("me").Get(context.Background())

	var transportErr *graph.TransportError
	s.Require().True(errors.As(err, &transportErr))

	var graphErr *graph.GraphError
	s.False(errors.As(err, &graphErr))
}
