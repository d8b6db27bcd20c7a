// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

// fakeFetcher records the request and answers with a canned body.
type fakeFetcher struct {
	body     string
	err      error
	calls    int
	endpoint string
	params   *Params
}

func (f *fakeFetcher) FetchJSON(_ context.Context, endpoint string, params *Params, out any) error {
	f.calls++
	f.endpoint = endpoint
	f.params = params

	if f.err != nil {
		return f.err
	}

	return json.Unmarshal([]byte(f.body), out)
}

func readTestdata(t *testing.T, name string) string {
	t.Helper()

	data, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("reading %s: %v", name, err)
	}

	return string(data)
}
