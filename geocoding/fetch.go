// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// maxErrorBody bounds how much of a failed response ends up in the error.
const maxErrorBody = 512

// Fetcher issues a GET with query parameters and decodes the JSON answer
// into out. Non 2xx answers are errors.
type Fetcher interface {
	FetchJSON(ctx context.Context, endpoint string, params *Params, out any) error
}

// HTTPFetcher is the net/http implementation of Fetcher.
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher creates a fetcher. A nil client uses a client with a 10s timeout.
func NewHTTPFetcher(client *http.Client) *HTTPFetcher {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	return &HTTPFetcher{client: client}
}

// FetchJSON implements Fetcher.
func (f *HTTPFetcher) FetchJSON(ctx context.Context, endpoint string, params *Params, out any) error {
	log := zerolog.Ctx(ctx)

	reqURL := endpoint
	if q := params.Encode(); q != "" {
		reqURL += "?" + q
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	log.Debug().
		Str("endpoint", endpoint).
		Str("params", params.Redacted()).
		Msg("geocoding request")

	start := time.Now()

	resp, err := f.client.Do(req)
	if err != nil {
		return classifyTransportError(err)
	}

	defer resp.Body.Close()

	log.Debug().
		Str("endpoint", endpoint).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("geocoding response")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

		return ClassifyHTTPError(resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	return nil
}

func classifyTransportError(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &GeocodingError{
			Type:    ErrorTypeTimeout,
			Message: "geocoding request timed out",
			Err:     err,
		}
	}

	return &GeocodingError{
		Type:    ErrorTypeNetworkError,
		Message: "geocoding request failed",
		Err:     err,
	}
}
