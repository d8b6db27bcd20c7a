// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jcodagnone/unigeo/config"
	"github.com/jcodagnone/unigeo/credentials"
	"github.com/jcodagnone/unigeo/geocoding"
	"github.com/jcodagnone/unigeo/history"
	"github.com/jcodagnone/unigeo/utils/httputils"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

// requestOptions are the flags of a forward lookup.
type requestOptions struct {
	provider string
	key      string
	language string
	country  string
	limit    int
	options  []string
	record   bool
}

func (o *requestOptions) request(query string) (*geocoding.Request, error) {
	opts, err := parseOptions(o.options)
	if err != nil {
		return nil, err
	}

	return &geocoding.Request{
		Query:    query,
		Language: o.language,
		Country:  o.country,
		Limit:    o.limit,
		Options:  opts,
	}, nil
}

// parseOptions reads key=value pairs. The last value of a repeated key wins.
func parseOptions(pairs []string) (geocoding.Options, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	opts := geocoding.Options{}

	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("invalid option %q, want key=value", pair)
		}

		opts[strings.TrimSpace(k)] = v
	}

	return opts, nil
}

func newFetcher(cfg *config.Config) geocoding.Fetcher {
	var trace io.Writer
	if cfg.HTTP.Trace {
		trace = os.Stderr
	}

	return geocoding.NewHTTPFetcher(httputils.NewClient(httputils.ClientOptions{
		Timeout:     cfg.HTTP.Timeout,
		UserAgent:   cfg.HTTP.UserAgent,
		TraceWriter: trace,
		TraceBody:   cfg.HTTP.TraceBody,
	}))
}

func newGeocoder(cfg *config.Config, provider string) (geocoding.Geocoder, error) {
	return geocoding.New(provider, cfg.ProviderConfig(provider, newFetcher(cfg)))
}

func newResolver(cfg *config.Config) *credentials.Resolver {
	return &credentials.Resolver{
		Configured:     cfg.APIKey,
		ProjectID:      cfg.GCP.ProjectID,
		KeyDisplayName: cfg.GCP.KeyDisplayName,
	}
}

func openHistory(cfg *config.Config) (history.Repository, error) {
	if cfg.Store.Path == "" {
		return nil, errors.New("store.path is not set")
	}

	return history.Open(cfg.Store.Path)
}

// newSpinner shows activity on stderr while a request is in flight. It
// returns a stop function and does nothing outside a terminal.
func newSpinner(description string) func() {
	if !isatty.IsTerminal(os.Stderr.Fd()) {
		return func() {}
	}

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)

	done := make(chan struct{})
	stopped := make(chan struct{})

	go func() {
		defer close(stopped)

		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				_ = bar.Add(1)
			}
		}
	}()

	return func() {
		close(done)
		<-stopped

		_ = bar.Finish()
	}
}
