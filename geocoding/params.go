// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"fmt"
	"math"
	"net/url"
	"reflect"
	"strconv"
	"strings"
)

// credentialKeys are masked by Params.Redacted.
var credentialKeys = []string{"key", "access_token", "apiKey"}

// Params is an ordered set of outbound query parameters.
//
// A key keeps the position of its first Set; later calls replace the value in
// place. A nil value marks the key as absent and it is skipped on encoding.
type Params struct {
	keys   []string
	values map[string]any
}

// NewParams returns an empty parameter set.
func NewParams() *Params {
	return &Params{values: make(map[string]any)}
}

// Set assigns value to key and returns p for chaining.
func (p *Params) Set(key string, value any) *Params {
	if _, ok := p.values[key]; !ok {
		p.keys = append(p.keys, key)
	}

	p.values[key] = value

	return p
}

// Merge sets every option, in key order.
func (p *Params) Merge(options Options) *Params {
	for _, k := range options.Keys() {
		p.Set(k, options[k])
	}

	return p
}

// Get returns the string form of key, and whether it is present.
func (p *Params) Get(key string) (string, bool) {
	v, ok := p.values[key]
	if !ok {
		return "", false
	}

	return stringify(v)
}

// Keys returns the present keys in encoding order.
func (p *Params) Keys() []string {
	keys := make([]string, 0, len(p.keys))

	for _, k := range p.keys {
		if _, ok := stringify(p.values[k]); ok {
			keys = append(keys, k)
		}
	}

	return keys
}

// Encode returns the form encoded query string.
func (p *Params) Encode() string {
	return p.encode(nil)
}

// Redacted encodes p with credential values masked, for logs.
func (p *Params) Redacted() string {
	return p.encode(credentialKeys)
}

func (p *Params) encode(masked []string) string {
	var sb strings.Builder

	for _, k := range p.keys {
		s, ok := stringify(p.values[k])
		if !ok {
			continue
		}

		for _, m := range masked {
			if k == m {
				s = "REDACTED"

				break
			}
		}

		if sb.Len() > 0 {
			sb.WriteByte('&')
		}

		sb.WriteString(url.QueryEscape(k))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(s))
	}

	return sb.String()
}

// stringify renders a parameter value; false means the value is absent.
func stringify(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		return x, true
	case bool:
		return strconv.FormatBool(x), true
	case int:
		return strconv.Itoa(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case int32:
		return strconv.FormatInt(int64(x), 10), true
	case uint:
		return strconv.FormatUint(uint64(x), 10), true
	case uint64:
		return strconv.FormatUint(x, 10), true
	case float64:
		return formatFloat(x, 64), true
	case float32:
		return formatFloat(float64(x), 32), true
	case []string:
		return strings.Join(x, ","), true
	case fmt.Stringer:
		if isNilPointer(v) {
			return "", false
		}

		return x.String(), true
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return "", false
		}

		return stringify(rv.Elem().Interface())
	}

	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		return joinElements(rv), true
	}

	return fmt.Sprint(v), true
}

// joinElements comma joins the elements of a slice or array, flattening
// nested ones. Absent elements render empty.
func joinElements(rv reflect.Value) string {
	parts := make([]string, rv.Len())

	for i := range parts {
		e := rv.Index(i)
		if e.Kind() == reflect.Interface && e.IsNil() {
			continue
		}

		parts[i], _ = stringify(e.Interface())
	}

	return strings.Join(parts, ",")
}

func formatFloat(f float64, bitSize int) string {
	switch {
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}

	return strconv.FormatFloat(f, 'f', -1, bitSize)
}

func isNilPointer(v any) bool {
	rv := reflect.ValueOf(v)

	return rv.Kind() == reflect.Pointer && rv.IsNil()
}
