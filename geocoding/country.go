// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"strings"

	"github.com/biter777/countries"
)

// CountryCodes converts country codes to ISO 3166-1 alpha-2.
type CountryCodes interface {
	// Alpha2 accepts an alpha-2 or alpha-3 code. It returns false when the
	// code is unknown.
	Alpha2(code string) (string, bool)
}

// ISOCountryCodes is the CountryCodes backed by the ISO 3166-1 table.
var ISOCountryCodes CountryCodes = isoCountryCodes{}

type isoCountryCodes struct{}

func (isoCountryCodes) Alpha2(code string) (string, bool) {
	code = strings.TrimSpace(code)
	if len(code) != 2 && len(code) != 3 {
		return "", false
	}

	c := countries.ByName(strings.ToUpper(code))
	if c == countries.Unknown || !c.IsValid() {
		return "", false
	}

	return c.Alpha2(), true
}
