// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import "testing"

func TestISOCountryCodes(t *testing.T) {
	tests := []struct {
		code   string
		want   string
		wantOK bool
	}{
		{code: "FRA", want: "FR", wantOK: true},
		{code: "URY", want: "UY", wantOK: true},
		{code: "deu", want: "DE", wantOK: true},
		{code: "FR", want: "FR", wantOK: true},
		{code: "QZQ", wantOK: false},
		{code: "", wantOK: false},
		{code: "France", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			got, ok := ISOCountryCodes.Alpha2(tt.code)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("Alpha2(%q) = %q, %v, want %q, %v", tt.code, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
