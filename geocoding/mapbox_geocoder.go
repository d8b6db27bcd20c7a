// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// https://docs.mapbox.com/api/search/geocoding/#forward-geocoding-with-search-text-input
const mapboxEndpoint = "https://api.mapbox.com/search/geocode/v6/forward"

const matched = "matched"

// MapboxGeocoder uses the Mapbox Geocoding API v6.
type MapboxGeocoder struct {
	cfg ProviderConfig
}

// NewMapboxGeocoder creates a new Mapbox geocoder.
func NewMapboxGeocoder(cfg ProviderConfig) *MapboxGeocoder {
	return &MapboxGeocoder{cfg: cfg}
}

type mapboxResponse struct {
	Features []mapboxFeature `json:"features"`
}

type mapboxFeature struct {
	ID         string `json:"id"`
	Properties struct {
		MapboxID    string `json:"mapbox_id"`
		FeatureType string `json:"feature_type"` // country, region, place, address, ...
		FullAddress string `json:"full_address"`
		Coordinates *struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"coordinates"`
		Context   mapboxContext    `json:"context"`
		MatchCode *mapboxMatchCode `json:"match_code"`
		BBox      []float64        `json:"bbox"`
	} `json:"properties"`
}

type mapboxName struct {
	Name string `json:"name"`
}

type mapboxContext struct {
	Country *struct {
		Name        string `json:"name"`
		CountryCode string `json:"country_code"`
	} `json:"country"`
	Region       *mapboxName `json:"region"`
	Postcode     *mapboxName `json:"postcode"`
	District     *mapboxName `json:"district"`
	Place        *mapboxName `json:"place"`
	Locality     *mapboxName `json:"locality"`
	Neighborhood *mapboxName `json:"neighborhood"`
	Address      *struct {
		StreetName    string `json:"street_name"`
		AddressNumber string `json:"address_number"`
	} `json:"address"`
}

type mapboxMatchCode struct {
	AddressNumber string `json:"address_number"`
	Street        string `json:"street"`
	Postcode      string `json:"postcode"`
	Place         string `json:"place"`
	Region        string `json:"region"`
	Locality      string `json:"locality"`
	Country       string `json:"country"`
	Confidence    string `json:"confidence"` // exact, high, medium, low
}

// trustable is all or nothing: every sub-address component must match.
func (m *mapboxMatchCode) trustable() bool {
	return m.AddressNumber == matched &&
		m.Street == matched &&
		m.Postcode == matched &&
		m.Country == matched
}

// Name implements Geocoder.
func (m *MapboxGeocoder) Name() string {
	return ProviderMapbox
}

// Forward implements Geocoder.
func (m *MapboxGeocoder) Forward(ctx context.Context, req *Request) ([]UnifiedResult, error) {
	if err := checkRequest(req); err != nil {
		return nil, err
	}

	var resp mapboxResponse
	if err := m.cfg.fetcher().FetchJSON(ctx, m.cfg.endpoint(mapboxEndpoint), m.params(req), &resp); err != nil {
		return nil, fmt.Errorf("%s: %w", ProviderMapbox, err)
	}

	results := make([]UnifiedResult, 0, len(resp.Features))
	for i := range resp.Features {
		results = append(results, formatMapboxResult(&resp.Features[i]))
	}

	zerolog.Ctx(ctx).Debug().Str("provider", ProviderMapbox).Int("results", len(results)).Msg("geocoded")

	return results, nil
}

// params builds the query. country is a hard filter.
func (m *MapboxGeocoder) params(req *Request) *Params {
	p := NewParams().
		Set("q", req.Query).
		Merge(req.Options).
		Set("limit", m.cfg.limit(req)).
		Set("access_token", req.APIKey)

	if req.Language != "" {
		p.Set("language", req.Language)
	}

	if req.Country != "" {
		p.Set("country", req.Country)
	}

	return p
}

func mapboxNameOf(n *mapboxName) string {
	if n == nil {
		return ""
	}

	return n.Name
}

func formatMapboxResult(feature *mapboxFeature) UnifiedResult {
	props := &feature.Properties
	c := &props.Context

	confidence := 0.0
	if props.MatchCode != nil && props.MatchCode.trustable() {
		confidence = 1
	}

	formatted := UnifiedResult{
		FormattedAddress: props.FullAddress,
		State:            mapboxNameOf(c.Region),
		City:             mapboxNameOf(c.Place),
		Zipcode:          mapboxNameOf(c.Postcode),
		District:         mapboxNameOf(c.District),
		Neighbourhood:    mapboxNameOf(c.Neighborhood),
		Extra: Extra{
			ExtraConfidence: confidence,
		},
	}

	if formatted.Neighbourhood == "" {
		formatted.Neighbourhood = mapboxNameOf(c.Locality)
	}

	if c.Country != nil {
		formatted.Country = c.Country.Name
		formatted.CountryCode = c.Country.CountryCode
	}

	// Street level fields are meaningless for coarser matches.
	if props.FeatureType == "address" && c.Address != nil {
		formatted.StreetName = c.Address.StreetName
		formatted.StreetNumber = c.Address.AddressNumber
	}

	if props.Coordinates != nil {
		formatted.Latitude = float64Ptr(props.Coordinates.Latitude)
		formatted.Longitude = float64Ptr(props.Coordinates.Longitude)
	}

	if feature.ID != "" {
		formatted.Extra[ExtraID] = feature.ID
	}

	if len(props.BBox) > 0 {
		formatted.Extra[ExtraBBox] = append([]float64(nil), props.BBox...)
	}

	return formatted
}
