// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/google/go-cmp/cmp"
	"github.com/jcodagnone/unigeo/config"
	"github.com/jcodagnone/unigeo/geocoding"
	"github.com/jcodagnone/unigeo/history"
	"github.com/jcodagnone/unigeo/spatial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	color.NoColor = true
}

func ptr(v float64) *float64 {
	return &v
}

func TestParseOptions(t *testing.T) {
	tests := []struct {
		name    string
		pairs   []string
		want    geocoding.Options
		wantErr bool
	}{
		{name: "none", pairs: nil, want: nil},
		{name: "simple", pairs: []string{"types=address", "proximity=2.35,48.85"}, want: geocoding.Options{"types": "address", "proximity": "2.35,48.85"}},
		{name: "empty value", pairs: []string{"bounds="}, want: geocoding.Options{"bounds": ""}},
		{name: "last wins", pairs: []string{"a=1", "a=2"}, want: geocoding.Options{"a": "2"}},
		{name: "value with equals", pairs: []string{"q=a=b"}, want: geocoding.Options{"q": "a=b"}},
		{name: "missing equals", pairs: []string{"types"}, wantErr: true},
		{name: "missing key", pairs: []string{"=x"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseOptions(tt.pairs)
			if tt.wantErr {
				assert.Error(t, err)

				return
			}

			require.NoError(t, err)

			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("parseOptions() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRequestOptions(t *testing.T) {
	o := &requestOptions{language: "fr", country: "FR", limit: 2, options: []string{"types=place"}}

	req, err := o.request("paris")
	require.NoError(t, err)
	assert.Equal(t, "paris", req.Query)
	assert.Equal(t, "fr", req.Language)
	assert.Equal(t, "FR", req.Country)
	assert.Equal(t, 2, req.Limit)
	assert.Equal(t, geocoding.Options{"types": "place"}, req.Options)
}

func TestPrintResults(t *testing.T) {
	results := []geocoding.UnifiedResult{
		{
			Latitude:         ptr(48.8606),
			Longitude:        ptr(2.3376),
			FormattedAddress: "Rue de Rivoli, 75001 Paris, France",
			StreetName:       "Rue de Rivoli",
			StreetNumber:     "10",
			City:             "Paris",
			CountryCode:      "FR",
			Extra:            geocoding.Extra{geocoding.ExtraConfidence: 0.95, geocoding.ExtraID: "here:1"},
		},
		{City: "Somewhere"},
	}

	var buf bytes.Buffer
	require.NoError(t, printResults(&buf, "here", results, 9))

	out := buf.String()
	assert.Contains(t, out, "1. Rue de Rivoli, 75001 Paris, France\n")
	assert.Contains(t, out, "48.860600, 2.337600  h3 ")
	assert.Contains(t, out, "street=Rue de Rivoli 10 city=Paris code=FR")
	assert.Contains(t, out, "confidence=0.95 id=here:1")
	assert.Contains(t, out, "2. (no formatted address)\n   city=Somewhere\n")

	buf.Reset()
	require.NoError(t, printResults(&buf, "mapbox", []geocoding.UnifiedResult{}, 0))
	assert.Equal(t, "no results from mapbox\n", buf.String())
}

func TestCellResultsByDistance(t *testing.T) {
	from := spatial.Point{Lat: -34.9058, Lng: -56.1913}

	stored := func(addr string, lat, lng float64) *history.Result {
		return &history.Result{Result: geocoding.UnifiedResult{FormattedAddress: addr, Latitude: ptr(lat), Longitude: ptr(lng)}}
	}

	results := []*history.Result{
		stored("far", -34.9158, -56.1913),
		stored("near", -34.9059, -56.1913),
		stored("middle", -34.9108, -56.1913),
	}

	sortByDistance(from, results)

	var buf bytes.Buffer
	require.NoError(t, printCellResults(&buf, from, "87c2e3a6bffffff", results))

	out := buf.String()
	assert.Contains(t, out, "3 stored results in h3 cell 87c2e3a6bffffff\n")
	assert.Contains(t, out, "1. near\n")
	assert.Contains(t, out, "   11 m away\n")
	assert.Contains(t, out, "2. middle\n")
	assert.Contains(t, out, "   556 m away\n")
	assert.Contains(t, out, "3. far\n")
	assert.Contains(t, out, "   1112 m away\n")
}

func TestParsePoint(t *testing.T) {
	p, err := parsePoint("-34.9011, -56.1645")
	require.NoError(t, err)
	assert.InDelta(t, -34.9011, p.Lat, 1e-9)
	assert.InDelta(t, -56.1645, p.Lng, 1e-9)

	for _, bad := range []string{"", "1", "a,b", "91,0", "0,181"} {
		_, err := parsePoint(bad)
		assert.Error(t, err, bad)
	}
}

func TestPrintProviders(t *testing.T) {
	cfg := &config.Config{
		Mapbox: config.ProviderSettings{APIKey: "pk", BaseURL: "http://localhost:1234/forward"},
		GCP:    config.GCPConfig{KeyDisplayName: "Maps Key"},
	}

	var buf bytes.Buffer
	require.NoError(t, printProviders(&buf, cfg))

	out := buf.String()
	assert.Contains(t, out, "│ google   │ via ADC    │ default")
	assert.Contains(t, out, "│ here     │ missing    │ default")
	assert.Contains(t, out, "│ mapbox   │ configured │ http://localhost:1234/forward")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "Avenida 1…", truncate("Avenida 18 de Julio", 10))
}
