// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"context"
	"fmt"

	"github.com/iancoleman/strcase"
	"github.com/rs/zerolog"
)

// https://developers.google.com/maps/documentation/geocoding/requests-geocoding
const googleEndpoint = "https://maps.googleapis.com/maps/api/geocode/json"

// GoogleGeocoder uses the Google Maps Geocoding API.
type GoogleGeocoder struct {
	cfg ProviderConfig
}

// NewGoogleGeocoder creates a new Google Maps geocoder.
func NewGoogleGeocoder(cfg ProviderConfig) *GoogleGeocoder {
	return &GoogleGeocoder{cfg: cfg}
}

type googleResponse struct {
	Results      []googleResult `json:"results"`
	Status       string         `json:"status"` // OK, ZERO_RESULTS, etc.
	ErrorMessage string         `json:"error_message"`
}

type googleResult struct {
	AddressComponents []googleAddressComponent `json:"address_components"`
	FormattedAddress  string                   `json:"formatted_address"`
	Geometry          *struct {
		Location *struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
		LocationType string `json:"location_type"` // ROOFTOP, RANGE_INTERPOLATED, GEOMETRIC_CENTER, APPROXIMATE
	} `json:"geometry"`
	PartialMatch bool   `json:"partial_match"`
	PlaceID      string `json:"place_id"`
}

type googleAddressComponent struct {
	LongName  string   `json:"long_name"`
	ShortName string   `json:"short_name"`
	Types     []string `json:"types"`
}

// Name implements Geocoder.
func (g *GoogleGeocoder) Name() string {
	return ProviderGoogle
}

// Forward implements Geocoder.
func (g *GoogleGeocoder) Forward(ctx context.Context, req *Request) ([]UnifiedResult, error) {
	if err := checkRequest(req); err != nil {
		return nil, err
	}

	var resp googleResponse
	if err := g.cfg.fetcher().FetchJSON(ctx, g.cfg.endpoint(googleEndpoint), g.params(req), &resp); err != nil {
		return nil, fmt.Errorf("%s: %w", ProviderGoogle, err)
	}

	if err := googleStatusError(resp.Status, resp.ErrorMessage); err != nil {
		return nil, fmt.Errorf("%s: %w", ProviderGoogle, err)
	}

	results := make([]UnifiedResult, 0, len(resp.Results))
	for i := range resp.Results {
		results = append(results, formatGoogleResult(&resp.Results[i]))
	}

	zerolog.Ctx(ctx).Debug().Str("provider", ProviderGoogle).Int("results", len(results)).Msg("geocoded")

	return results, nil
}

// params builds the query. country is a soft bias (region), not a filter.
func (g *GoogleGeocoder) params(req *Request) *Params {
	p := NewParams().
		Set("address", req.Query).
		Merge(req.Options).
		Set("key", req.APIKey)

	if req.Language != "" {
		p.Set("language", req.Language)
	}

	if req.Country != "" {
		p.Set("region", req.Country)
	}

	return p
}

// googleStatusError reports statuses Google answers with HTTP 200.
func googleStatusError(status, message string) error {
	if message == "" {
		message = "google maps status " + status
	}

	switch status {
	case "", "OK", "ZERO_RESULTS":
		return nil
	case "OVER_QUERY_LIMIT", "OVER_DAILY_LIMIT", "REQUEST_DENIED":
		return &GeocodingError{Type: ErrorTypeQuotaExceeded, Message: message}
	case "INVALID_REQUEST":
		return &GeocodingError{Type: ErrorTypeInvalidRequest, Message: message}
	default:
		return &GeocodingError{Type: ErrorTypeUnknown, Message: message}
	}
}

// flattenGoogleComponents folds the address components, in document order,
// into a map keyed by the lowerCamel form of each type. The first component
// claiming a type wins.
func flattenGoogleComponents(components []googleAddressComponent) map[string]string {
	acc := make(map[string]string)

	for _, item := range components {
		for _, t := range item.Types {
			key := strcase.ToLowerCamel(t)

			if _, found := acc[key]; found || key == "political" {
				continue
			}

			if key == "country" {
				acc["countryCode"] = item.ShortName
			}

			acc[key] = item.LongName
		}
	}

	return acc
}

// googleWellKnown are the flattened keys mapped to UnifiedResult fields.
var googleWellKnown = []string{
	"country",
	"countryCode",
	"administrativeAreaLevel1",
	"administrativeAreaLevel2",
	"administrativeAreaLevel3",
	"locality",
	"postalTown",
	"postalCode",
	"route",
	"streetNumber",
}

func formatGoogleResult(result *googleResult) UnifiedResult {
	components := flattenGoogleComponents(result.AddressComponents)

	extra := make(Extra, len(components)+2)
	for k, v := range components {
		extra[k] = v
	}

	for _, k := range googleWellKnown {
		delete(extra, k)
	}

	confidence := 1.0
	if result.PartialMatch {
		confidence = 0
	}

	extra[ExtraConfidence] = confidence

	if result.PlaceID != "" {
		extra[ExtraID] = result.PlaceID
	}

	city := components["locality"]
	if city == "" {
		city = components["postalTown"]
	}

	formatted := UnifiedResult{
		FormattedAddress: result.FormattedAddress,
		Country:          components["country"],
		CountryCode:      components["countryCode"],
		State:            components["administrativeAreaLevel1"],
		Region:           components["administrativeAreaLevel2"],
		District:         components["administrativeAreaLevel3"],
		City:             city,
		Zipcode:          components["postalCode"],
		StreetName:       components["route"],
		StreetNumber:     components["streetNumber"],
		Extra:            extra,
	}

	if result.Geometry != nil && result.Geometry.Location != nil {
		formatted.Latitude = float64Ptr(result.Geometry.Location.Lat)
		formatted.Longitude = float64Ptr(result.Geometry.Location.Lng)
	}

	return formatted
}
