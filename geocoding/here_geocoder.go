// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/rs/zerolog"
)

// https://www.here.com/docs/bundle/geocoding-and-search-api-v7-api-reference/page/index.html#/paths/~1geocode/get
const hereEndpoint = "https://geocode.search.hereapi.com/v1/geocode"

// HereGeocoder uses the HERE Geocoding & Search API v7.
type HereGeocoder struct {
	cfg ProviderConfig
}

// NewHereGeocoder creates a new HERE geocoder.
func NewHereGeocoder(cfg ProviderConfig) *HereGeocoder {
	if cfg.Countries == nil {
		cfg.Countries = ISOCountryCodes
	}

	return &HereGeocoder{cfg: cfg}
}

type hereResponse struct {
	Items []hereItem `json:"items"`
}

type hereItem struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	ResultType string `json:"resultType"`
	Address    struct {
		Label       string `json:"label"`
		CountryCode string `json:"countryCode"` // alpha-3
		CountryName string `json:"countryName"`
		State       string `json:"state"`
		County      string `json:"county"`
		City        string `json:"city"`
		District    string `json:"district"`
		Street      string `json:"street"`
		PostalCode  string `json:"postalCode"`
		HouseNumber string `json:"houseNumber"`
		Building    string `json:"building"`
	} `json:"address"`
	Position *struct {
		Lat float64 `json:"lat"`
		Lng float64 `json:"lng"`
	} `json:"position"`
	Scoring *struct {
		QueryScore *float64 `json:"queryScore"`
	} `json:"scoring"`
}

// Name implements Geocoder.
func (h *HereGeocoder) Name() string {
	return ProviderHere
}

// Forward implements Geocoder.
func (h *HereGeocoder) Forward(ctx context.Context, req *Request) ([]UnifiedResult, error) {
	if err := checkRequest(req); err != nil {
		return nil, err
	}

	var resp hereResponse
	if err := h.cfg.fetcher().FetchJSON(ctx, h.cfg.endpoint(hereEndpoint), h.params(req), &resp); err != nil {
		return nil, fmt.Errorf("%s: %w", ProviderHere, err)
	}

	results := make([]UnifiedResult, 0, len(resp.Items))
	for i := range resp.Items {
		results = append(results, formatHereResult(&resp.Items[i], h.cfg.Countries))
	}

	zerolog.Ctx(ctx).Debug().Str("provider", ProviderHere).Int("results", len(results)).Msg("geocoded")

	return results, nil
}

// params builds the query. country is a hard filter (in=countryCode:XX).
func (h *HereGeocoder) params(req *Request) *Params {
	p := NewParams().
		Set("q", req.Query).
		Merge(req.Options).
		Set("limit", h.cfg.limit(req)).
		Set("access_token", req.APIKey)

	if req.Language != "" {
		p.Set("lang", req.Language)
	}

	if req.Country != "" {
		p.Set("in", "countryCode:"+req.Country)
	}

	return p
}

func formatHereResult(item *hereItem, codes CountryCodes) UnifiedResult {
	addr := item.Address

	confidence := 0.0
	if item.Scoring != nil && item.Scoring.QueryScore != nil {
		confidence = roundScore(*item.Scoring.QueryScore)
	}

	formatted := UnifiedResult{
		FormattedAddress: addr.Label,
		Country:          addr.CountryName,
		State:            addr.State,
		County:           addr.County,
		City:             addr.City,
		Zipcode:          addr.PostalCode,
		District:         addr.District,
		StreetName:       addr.Street,
		StreetNumber:     addr.HouseNumber,
		Building:         addr.Building,
		Extra: Extra{
			ExtraConfidence: confidence,
		},
	}

	if item.ID != "" {
		formatted.Extra[ExtraID] = item.ID
	}

	if addr.CountryCode != "" {
		if code, ok := codes.Alpha2(addr.CountryCode); ok {
			formatted.CountryCode = code
		}
	}

	if item.Position != nil {
		formatted.Latitude = float64Ptr(item.Position.Lat)
		formatted.Longitude = float64Ptr(item.Position.Lng)
	}

	return formatted
}

// roundScore rounds to two decimals using the exact binary value, so 0.015
// (stored as 0.01499...) gives 0.01. Exact half way values (m/8) round away
// from zero.
func roundScore(x float64) float64 {
	if m := x * 8; m == math.Trunc(m) && math.Mod(m, 2) != 0 {
		return math.Round(x*100) / 100
	}

	r, err := strconv.ParseFloat(strconv.FormatFloat(x, 'f', 2, 64), 64)
	if err != nil {
		return x
	}

	return r
}
