// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

// Package geocoding calls forward geocoding services and converts their
// answers into UnifiedResult values.
package geocoding

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// Provider names.
const (
	ProviderGoogle = "google"
	ProviderHere   = "here"
	ProviderMapbox = "mapbox"
)

// Common errors returned by the adapters.
var (
	ErrMissingQuery    = errors.New("query is required")
	ErrUnknownProvider = errors.New("unknown geocoding provider")
)

// Options are provider specific parameters, sent verbatim.
type Options map[string]any

// Keys returns the option names, sorted.
func (o Options) Keys() []string {
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}

// Request holds the inputs shared by every provider.
type Request struct {
	// APIKey is forwarded to the provider as is.
	APIKey string

	// Query is the free text address.
	Query string

	// Language of the results, optional.
	Language string

	// Country is an ISO code used as a regional hint or filter, optional.
	Country string

	// Limit is the maximum number of results. Zero uses the provider default.
	Limit int

	// Options are merged into the outbound parameters.
	Options Options
}

// Geocoder forward geocodes a free text query.
type Geocoder interface {
	// Name returns the provider name.
	Name() string

	// Forward returns the normalized matches for req. It never returns a nil
	// slice on success.
	Forward(ctx context.Context, req *Request) ([]UnifiedResult, error)
}

// ProviderConfig configures an adapter.
type ProviderConfig struct {
	// Fetcher performs the HTTP call. Defaults to NewHTTPFetcher(nil).
	Fetcher Fetcher

	// BaseURL overrides the public endpoint.
	BaseURL string

	// DefaultLimit is sent when Request.Limit is zero. Zero sends no limit.
	DefaultLimit int

	// Countries converts country codes. Defaults to ISOCountryCodes.
	Countries CountryCodes
}

func (c ProviderConfig) fetcher() Fetcher {
	if c.Fetcher == nil {
		return NewHTTPFetcher(nil)
	}

	return c.Fetcher
}

func (c ProviderConfig) endpoint(def string) string {
	if c.BaseURL == "" {
		return def
	}

	return c.BaseURL
}

// limit returns the limit parameter value, nil when there is none.
func (c ProviderConfig) limit(req *Request) any {
	if req.Limit > 0 {
		return req.Limit
	}

	if c.DefaultLimit > 0 {
		return c.DefaultLimit
	}

	return nil
}

// Providers returns the supported provider names.
func Providers() []string {
	return []string{ProviderGoogle, ProviderHere, ProviderMapbox}
}

// New returns the adapter for the named provider.
func New(name string, cfg ProviderConfig) (Geocoder, error) {
	switch name {
	case ProviderGoogle:
		return NewGoogleGeocoder(cfg), nil
	case ProviderHere:
		return NewHereGeocoder(cfg), nil
	case ProviderMapbox:
		return NewMapboxGeocoder(cfg), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
}

func checkRequest(req *Request) error {
	if req == nil || req.Query == "" {
		return ErrMissingQuery
	}

	return nil
}
