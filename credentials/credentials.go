// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

// Package credentials decides which API key is sent to each provider.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"sync"

	apikeys "cloud.google.com/go/apikeys/apiv2"
	"cloud.google.com/go/apikeys/apiv2/apikeyspb"
	"github.com/jcodagnone/unigeo/geocoding"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/iterator"
)

// ErrNoCredentials is returned when no source yields a key.
var ErrNoCredentials = errors.New("no credentials configured")

// KeyLookup retrieves the Google Maps key named displayName from a GCP project.
type KeyLookup func(ctx context.Context, projectID, displayName string) (string, error)

// Resolver picks the key of a provider. The order is: the explicit key, the
// configured key, and for Google only, the API Keys service lookup when
// KeyDisplayName is set.
type Resolver struct {
	// Configured returns the key from configuration or environment.
	Configured func(provider string) string

	// ProjectID overrides the project found in the default credentials.
	ProjectID string

	// KeyDisplayName enables the API Keys lookup.
	KeyDisplayName string

	// Lookup defaults to GoogleMapsKeyFromADC.
	Lookup KeyLookup

	mu     sync.Mutex
	cached string
}

// Resolve returns the key to use for provider.
func (r *Resolver) Resolve(ctx context.Context, provider, explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}

	if r.Configured != nil {
		if key := r.Configured(provider); key != "" {
			return key, nil
		}
	}

	if provider != geocoding.ProviderGoogle || r.KeyDisplayName == "" {
		return "", fmt.Errorf("%s: %w", provider, ErrNoCredentials)
	}

	return r.fromADC(ctx)
}

func (r *Resolver) fromADC(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cached != "" {
		return r.cached, nil
	}

	lookup := r.Lookup
	if lookup == nil {
		lookup = GoogleMapsKeyFromADC
	}

	zerolog.Ctx(ctx).Info().
		Str("display_name", r.KeyDisplayName).
		Msg("google key not configured, retrieving it via ADC")

	key, err := lookup(ctx, r.ProjectID, r.KeyDisplayName)
	if err != nil {
		return "", fmt.Errorf("%s: %w", geocoding.ProviderGoogle, err)
	}

	r.cached = key

	return key, nil
}

// GoogleMapsKeyFromADC finds the API key whose display name is displayName
// using Application Default Credentials. An empty projectID uses the project
// of the credentials.
func GoogleMapsKeyFromADC(ctx context.Context, projectID, displayName string) (string, error) {
	log := zerolog.Ctx(ctx)

	creds, err := google.FindDefaultCredentials(ctx, "https://www.googleapis.com/auth/cloud-platform")
	if err != nil {
		return "", fmt.Errorf("finding default credentials: %w", err)
	}

	if projectID == "" {
		projectID = creds.ProjectID
	}

	if projectID == "" {
		return "", errors.New("no project id in credentials, set gcp.project_id")
	}

	client, err := apikeys.NewClient(ctx)
	if err != nil {
		return "", fmt.Errorf("creating apikeys client: %w", err)
	}
	defer client.Close()

	it := client.ListKeys(ctx, &apikeyspb.ListKeysRequest{
		Parent: fmt.Sprintf("projects/%s/locations/global", projectID),
	})

	for {
		key, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}

		if err != nil {
			return "", fmt.Errorf("listing keys: %w", err)
		}

		if key.GetDisplayName() != displayName {
			continue
		}

		// ListKeys redacts the secret
		log.Debug().Str("key", key.GetName()).Msg("found key resource, retrieving secret")

		resp, err := client.GetKeyString(ctx, &apikeyspb.GetKeyStringRequest{Name: key.GetName()})
		if err != nil {
			return "", fmt.Errorf("getting key string: %w", err)
		}

		if resp.GetKeyString() == "" {
			return "", fmt.Errorf("key %q found but its key string is empty", displayName)
		}

		return resp.GetKeyString(), nil
	}

	return "", fmt.Errorf("key with display name %q not found in project %s", displayName, projectID)
}
