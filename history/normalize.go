// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package history

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeQuery removes accents, lowercases and collapses blanks so that
// "Rue de Rivoli" and "  rue  de RIVOLÍ" are stored under the same key.
func NormalizeQuery(s string) string {
	s, _, _ = transform.String(
		transform.Chain(
			norm.NFD,
			runes.Remove(runes.In(unicode.Mn)),
			norm.NFC,
		),
		strings.ToLower(s),
	)

	return strings.Join(strings.Fields(s), " ")
}
