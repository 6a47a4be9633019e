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

package canvas

import (
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/facegraph/facegraph-go/internal/pkg/config"
)

// CORSMiddleware applies CORS headers based on the provided configuration
func CORSMiddleware(handler http.Handler, cfg config.CORSConfig) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Skip CORS handling if disabled
		if !cfg.Enabled {
			handler.ServeHTTP(w, r)
			return
		}

		origin := r.Header.Get("Origin")

		// If no Origin is present, continue as normal
		if origin == "" {
			handler.ServeHTTP(w, r)
			return
		}

		// Check if the origin is allowed
		if !isOriginAllowed(cfg, origin) {
			http.Error(w, "CORS: Origin not allowed", http.StatusForbidden)
			return
		}

		// Always use the actual origin (not "*") when credentials are allowed
		if cfg.AllowCredentials && origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			if slices.Contains(cfg.AllowOrigins, "*") {
				w.Header().Set("Access-Control-Allow-Origin", "*")
			} else {
				w.Header().Set("Access-Control-Allow-Origin", origin)
			}
		}

		// Handle preflight requests
		if r.Method == http.MethodOptions {
			if len(cfg.AllowMethods) > 0 {
				w.Header().Set("Access-Control-Allow-Methods", strings.Join(cfg.AllowMethods, ", "))
			}

			// If the client requested specific headers, respond to those
			requestHeaders := r.Header.Get("Access-Control-Request-Headers")
			if requestHeaders != "" {
				w.Header().Set("Access-Control-Allow-Headers", requestHeaders)
			} else if len(cfg.AllowHeaders) > 0 {
				w.Header().Set("Access-Control-Allow-Headers", strings.Join(cfg.AllowHeaders, ", "))
			}

			if cfg.MaxAge > 0 {
				w.Header().Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
			}

			if cfg.AllowCredentials {
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}

			// Respond to preflight with 204 No Content
			w.WriteHeader(http.StatusNoContent)
			return
		}

		if cfg.AllowCredentials {
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		}

		// Continue to the actual handler
		handler.ServeHTTP(w, r)
	})
}

// isOriginAllowed checks the request origin against the configured list;
// "*" allows every origin.
func isOriginAllowed(cfg config.CORSConfig, origin string) bool {
	if slices.Contains(cfg.AllowOrigins, "*") {
		return true
	}
	return slices.Contains(cfg.AllowOrigins, origin)
}
