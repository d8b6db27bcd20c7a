// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPFetcher(t *testing.T) {
	var gotQuery string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items": [{"id": "a"}]}`))
	}))
	defer srv.Close()

	var logs bytes.Buffer
	ctx := zerolog.New(&logs).Level(zerolog.DebugLevel).WithContext(context.Background())

	var out hereResponse

	params := NewParams().Set("q", "x y").Set("access_token", "secret")
	err := NewHTTPFetcher(srv.Client()).FetchJSON(ctx, srv.URL, params, &out)
	require.NoError(t, err)

	assert.Equal(t, "q=x+y&access_token=secret", gotQuery)
	require.Len(t, out.Items, 1)
	assert.Equal(t, "a", out.Items[0].ID)

	assert.Contains(t, logs.String(), "geocoding request")
	assert.Contains(t, logs.String(), "access_token=REDACTED")
	assert.NotContains(t, logs.String(), "secret")
}

func TestHTTPFetcherStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	var out map[string]any

	err := NewHTTPFetcher(srv.Client()).FetchJSON(context.Background(), srv.URL, NewParams(), &out)
	require.Error(t, err)

	var geoErr *GeocodingError
	require.ErrorAs(t, err, &geoErr)
	assert.Equal(t, http.StatusUnauthorized, geoErr.StatusCode)
	assert.Equal(t, ErrorTypeQuotaExceeded, geoErr.Type)
	assert.Contains(t, err.Error(), "status=401")
	assert.Contains(t, err.Error(), "Unauthorized")
}

func TestHTTPFetcherBadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html>`))
	}))
	defer srv.Close()

	var out map[string]any

	err := NewHTTPFetcher(srv.Client()).FetchJSON(context.Background(), srv.URL, NewParams(), &out)
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "decoding response"))
}

func TestHTTPFetcherTimeout(t *testing.T) {
	release := make(chan struct{})

	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	var out map[string]any

	err := NewHTTPFetcher(srv.Client()).FetchJSON(ctx, srv.URL, NewParams(), &out)
	require.Error(t, err)
	assert.True(t, IsTimeoutError(err))
}

func TestForwardThroughHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/geocode/v6/forward", r.URL.Path)
		assert.Equal(t, "pk", r.URL.Query().Get("access_token"))

		_, _ = w.Write([]byte(readTestdata(t, "mapbox_paris.json")))
	}))
	defer srv.Close()

	m := NewMapboxGeocoder(ProviderConfig{
		Fetcher: NewHTTPFetcher(srv.Client()),
		BaseURL: srv.URL + "/search/geocode/v6/forward",
	})

	results, err := m.Forward(context.Background(), &Request{APIKey: "pk", Query: "rivoli"})
	require.NoError(t, err)
	assert.Len(t, results, 2)
}
