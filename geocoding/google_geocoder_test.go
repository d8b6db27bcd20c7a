// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoogleParams(t *testing.T) {
	g := NewGoogleGeocoder(ProviderConfig{DefaultLimit: 5})

	tests := []struct {
		name string
		req  *Request
		want string
	}{
		{
			name: "mandatory only",
			req:  &Request{APIKey: "k", Query: "10 rue de rivoli"},
			want: "address=10+rue+de+rivoli&key=k",
		},
		{
			name: "country is a soft region bias",
			req:  &Request{APIKey: "k", Query: "paris", Country: "fr", Language: "fr"},
			want: "address=paris&key=k&language=fr&region=fr",
		},
		{
			name: "limit is never sent",
			req:  &Request{APIKey: "k", Query: "paris", Limit: 3},
			want: "address=paris&key=k",
		},
		{
			name: "options sit between address and key",
			req: &Request{
				APIKey:  "k",
				Query:   "paris",
				Options: Options{"components": "country:FR", "bounds": "1,2|3,4"},
			},
			want: "address=paris&bounds=1%2C2%7C3%2C4&components=country%3AFR&key=k",
		},
		{
			name: "key overrides a key option in place",
			req:  &Request{APIKey: "real", Query: "paris", Options: Options{"key": "fake", "region": "es"}, Country: "fr"},
			want: "address=paris&key=real&region=fr",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := g.params(tt.req).Encode(); got != tt.want {
				t.Errorf("params() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatGoogleResultMinimal(t *testing.T) {
	result := &googleResult{
		AddressComponents: []googleAddressComponent{
			{Types: []string{"locality"}, LongName: "Paris"},
			{Types: []string{"country"}, LongName: "France", ShortName: "FR"},
		},
		PartialMatch: false,
	}

	got := formatGoogleResult(result)

	assert.Equal(t, "Paris", got.City)
	assert.Equal(t, "France", got.Country)
	assert.Equal(t, "FR", got.CountryCode)
	assert.InDelta(t, 1, got.Extra.Confidence(), 0)
	assert.Nil(t, got.Latitude)
	assert.Nil(t, got.Longitude)
	assert.Empty(t, got.FormattedAddress)

	result.PartialMatch = true
	got = formatGoogleResult(result)
	assert.InDelta(t, 0, got.Extra.Confidence(), 0)
}

func TestFormatGoogleResultFirstWriterWins(t *testing.T) {
	result := &googleResult{
		AddressComponents: []googleAddressComponent{
			{Types: []string{"postal_town"}, LongName: "London"},
			{Types: []string{"sublocality_level_1", "political"}, LongName: "Camden"},
			{Types: []string{"sublocality_level_1"}, LongName: "Ignored"},
			{Types: []string{"country", "political"}, LongName: "United Kingdom", ShortName: "GB"},
			{Types: []string{"country"}, LongName: "Elsewhere", ShortName: "XX"},
			{Types: []string{"administrative_area_level_1"}, LongName: "England"},
			{Types: []string{"administrative_area_level_2"}, LongName: "Greater London"},
			{Types: []string{"administrative_area_level_3"}, LongName: "Camden Town"},
		},
	}

	got := formatGoogleResult(result)

	want := UnifiedResult{
		Country:     "United Kingdom",
		CountryCode: "GB",
		State:       "England",
		Region:      "Greater London",
		District:    "Camden Town",
		City:        "London",
		Extra: Extra{
			"sublocalityLevel1": "Camden",
			ExtraConfidence:     1.0,
		},
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("formatGoogleResult() mismatch (-want +got):\n%s", diff)
	}
}

func TestFormatGoogleResultMissingComponents(t *testing.T) {
	got := formatGoogleResult(&googleResult{FormattedAddress: "Somewhere"})

	assert.Equal(t, "Somewhere", got.FormattedAddress)
	assert.Equal(t, Extra{ExtraConfidence: 1.0}, got.Extra)
}

func TestGoogleForward(t *testing.T) {
	fetcher := &fakeFetcher{body: readTestdata(t, "google_paris.json")}
	g := NewGoogleGeocoder(ProviderConfig{Fetcher: fetcher})

	results, err := g.Forward(context.Background(), &Request{APIKey: "k", Query: "10 rue de rivoli", Country: "FR"})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, googleEndpoint, fetcher.endpoint)
	assert.Equal(t, "address=10+rue+de+rivoli&key=k&region=FR", fetcher.params.Encode())

	first := results[0]
	want := UnifiedResult{
		Latitude:         float64Ptr(48.8556),
		Longitude:        float64Ptr(2.3601),
		FormattedAddress: "10 Rue de Rivoli, 75004 Paris, France",
		Country:          "France",
		CountryCode:      "FR",
		State:            "Île-de-France",
		Region:           "Arrondissement de Paris",
		City:             "Paris",
		Zipcode:          "75004",
		StreetName:       "Rue de Rivoli",
		StreetNumber:     "10",
		Extra: Extra{
			"neighborhood":  "Le Marais",
			ExtraConfidence: 1.0,
			ExtraID:         "ChIJ-google-place",
		},
	}

	if diff := cmp.Diff(want, first); diff != "" {
		t.Errorf("first result mismatch (-want +got):\n%s", diff)
	}

	second := results[1]
	assert.Equal(t, "Paris, France", second.FormattedAddress)
	assert.Nil(t, second.Latitude)
	assert.InDelta(t, 0, second.Extra.Confidence(), 0)
}

func TestGoogleForwardZeroResults(t *testing.T) {
	g := NewGoogleGeocoder(ProviderConfig{Fetcher: &fakeFetcher{body: `{"results": [], "status": "ZERO_RESULTS"}`}})

	results, err := g.Forward(context.Background(), &Request{APIKey: "k", Query: "nowhere"})
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestGoogleForwardStatusErrors(t *testing.T) {
	tests := []struct {
		status   string
		wantType ErrorType
	}{
		{status: "REQUEST_DENIED", wantType: ErrorTypeQuotaExceeded},
		{status: "OVER_QUERY_LIMIT", wantType: ErrorTypeQuotaExceeded},
		{status: "INVALID_REQUEST", wantType: ErrorTypeInvalidRequest},
		{status: "UNKNOWN_ERROR", wantType: ErrorTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			body := `{"results": [], "status": "` + tt.status + `", "error_message": "nope"}`
			g := NewGoogleGeocoder(ProviderConfig{Fetcher: &fakeFetcher{body: body}})

			_, err := g.Forward(context.Background(), &Request{APIKey: "k", Query: "x"})
			require.Error(t, err)

			var geoErr *GeocodingError
			require.ErrorAs(t, err, &geoErr)
			assert.Equal(t, tt.wantType, geoErr.Type)
			assert.Contains(t, err.Error(), "google: nope")
		})
	}
}

func TestGoogleForwardPropagatesFetchError(t *testing.T) {
	upstream := ClassifyHTTPError(403, "forbidden")
	g := NewGoogleGeocoder(ProviderConfig{Fetcher: &fakeFetcher{err: upstream}})

	_, err := g.Forward(context.Background(), &Request{APIKey: "k", Query: "x"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, upstream))
	assert.Equal(t, 403, StatusCode(err))
}

func TestGoogleForwardMissingQuery(t *testing.T) {
	fetcher := &fakeFetcher{}
	g := NewGoogleGeocoder(ProviderConfig{Fetcher: fetcher})

	_, err := g.Forward(context.Background(), &Request{APIKey: "k"})
	require.ErrorIs(t, err, ErrMissingQuery)
	assert.Zero(t, fetcher.calls)
}
