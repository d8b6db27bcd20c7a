// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

type color string

func (c color) String() string { return "color:" + string(c) }

func TestParamsEncode(t *testing.T) {
	var nilString *string

	s := "pointer"

	tests := []struct {
		name   string
		params *Params
		want   string
	}{
		{
			name:   "empty",
			params: NewParams(),
			want:   "",
		},
		{
			name:   "keeps insertion order",
			params: NewParams().Set("q", "a b").Set("limit", 3).Set("access_token", "t"),
			want:   "q=a+b&limit=3&access_token=t",
		},
		{
			name:   "later set overrides in place",
			params: NewParams().Set("q", "first").Set("x", 1).Set("q", "second"),
			want:   "q=second&x=1",
		},
		{
			name:   "nil drops the key",
			params: NewParams().Set("q", "x").Set("limit", 5).Set("limit", nil),
			want:   "q=x",
		},
		{
			name: "scalars",
			params: NewParams().
				Set("b", true).
				Set("f", 1.5).
				Set("i64", int64(-2)).
				Set("u", uint(7)).
				Set("empty", ""),
			want: "b=true&f=1.5&i64=-2&u=7&empty=",
		},
		{
			name:   "slices are comma joined",
			params: NewParams().Set("bbox", []float64{-1.5, 2, 3.25}).Set("types", []string{"address", "place"}),
			want:   "bbox=-1.5%2C2%2C3.25&types=address%2Cplace",
		},
		{
			name: "any slice kind is comma joined",
			params: NewParams().
				Set("bbox", []int{1, 2, 3, 4}).
				Set("types", []any{"address", "place"}).
				Set("flags", []bool{true, false}).
				Set("mixed", []any{1.5, nil, "x", []int{7, 8}}).
				Set("fixed", [2]int64{-1, 2}),
			want: "bbox=1%2C2%2C3%2C4&types=address%2Cplace&flags=true%2Cfalse&mixed=1.5%2C%2Cx%2C7%2C8&fixed=-1%2C2",
		},
		{
			name:   "non finite floats",
			params: NewParams().Set("nan", math.NaN()).Set("inf", math.Inf(1)).Set("ninf", math.Inf(-1)),
			want:   "nan=NaN&inf=Infinity&ninf=-Infinity",
		},
		{
			name:   "pointers",
			params: NewParams().Set("a", nilString).Set("b", &s),
			want:   "b=pointer",
		},
		{
			name:   "stringer",
			params: NewParams().Set("c", color("red")),
			want:   "c=color%3Ared",
		},
		{
			name:   "escaping",
			params: NewParams().Set("in", "countryCode:FRA").Set("q", "rue de l'église & co"),
			want:   "in=countryCode%3AFRA&q=rue+de+l%27%C3%A9glise+%26+co",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.params.Encode(); got != tt.want {
				t.Errorf("Encode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParamsMergeSortsOptions(t *testing.T) {
	p := NewParams().
		Set("q", "x").
		Merge(Options{"types": "address", "autocomplete": false, "bbox": nil}).
		Set("access_token", "t")

	if diff := cmp.Diff([]string{"q", "autocomplete", "types", "access_token"}, p.Keys()); diff != "" {
		t.Errorf("Keys() mismatch (-want +got):\n%s", diff)
	}
}

func TestParamsGet(t *testing.T) {
	p := NewParams().Set("limit", 10).Set("gone", nil)

	v, ok := p.Get("limit")
	assert.True(t, ok)
	assert.Equal(t, "10", v)

	_, ok = p.Get("gone")
	assert.False(t, ok)

	_, ok = p.Get("missing")
	assert.False(t, ok)
}

func TestParamsRedacted(t *testing.T) {
	p := NewParams().Set("address", "x").Set("key", "secret").Set("access_token", "secret")

	assert.Equal(t, "address=x&key=REDACTED&access_token=REDACTED", p.Redacted())
	assert.Equal(t, "address=x&key=secret&access_token=secret", p.Encode())
}
