// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"github.com/jcodagnone/unigeo/spatial"
)

// Well-known keys of Extra.
const (
	ExtraConfidence = "confidence"
	ExtraID         = "id"
	ExtraBBox       = "bbox"
)

// UnifiedResult is the provider independent shape of a forward geocoding match.
//
// Every field is optional: a field a provider does not produce is left at its
// zero value and omitted from JSON. Absence means "unknown", not "empty".
type UnifiedResult struct {
	Latitude         *float64 `json:"latitude,omitempty"`
	Longitude        *float64 `json:"longitude,omitempty"`
	FormattedAddress string   `json:"formattedAddress,omitempty"`
	Country          string   `json:"country,omitempty"`
	CountryCode      string   `json:"countryCode,omitempty"` // ISO 3166-1 alpha-2
	State            string   `json:"state,omitempty"`
	Region           string   `json:"region,omitempty"`
	District         string   `json:"district,omitempty"`
	City             string   `json:"city,omitempty"`
	Zipcode          string   `json:"zipcode,omitempty"`
	StreetName       string   `json:"streetName,omitempty"`
	StreetNumber     string   `json:"streetNumber,omitempty"`
	Neighbourhood    string   `json:"neighbourhood,omitempty"`
	Building         string   `json:"building,omitempty"`
	County           string   `json:"county,omitempty"`
	Extra            Extra    `json:"extra,omitempty"`
}

// Point returns the coordinates of the result, if the provider returned them.
func (r *UnifiedResult) Point() (spatial.Point, bool) {
	if r.Latitude == nil || r.Longitude == nil {
		return spatial.Point{}, false
	}

	return spatial.Point{Lat: *r.Latitude, Lng: *r.Longitude}, true
}

// Extra holds provider specific leftovers.
//
// The confidence stored under ExtraConfidence is not comparable across
// providers: google reports 0 or 1 from its partial_match flag, here reports
// its queryScore (0..1, two decimals) and mapbox reports 1 only when every
// component of the match code matched. 0 means no match signal was available.
type Extra map[string]any

// Confidence returns the normalized confidence, 0 when absent.
func (e Extra) Confidence() float64 {
	switch v := e[ExtraConfidence].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return 0
	}
}

// ID returns the provider's native feature identifier, if any.
func (e Extra) ID() string {
	s, _ := e[ExtraID].(string)

	return s
}

// BBox returns the bounding box, if the provider sent one. It also accepts
// the []any form produced by decoding a stored result.
func (e Extra) BBox() []float64 {
	switch b := e[ExtraBBox].(type) {
	case []float64:
		return b
	case []any:
		out := make([]float64, 0, len(b))

		for _, v := range b {
			f, ok := v.(float64)
			if !ok {
				return nil
			}

			out = append(out, f)
		}

		return out
	default:
		return nil
	}
}

func float64Ptr(v float64) *float64 {
	return &v
}
