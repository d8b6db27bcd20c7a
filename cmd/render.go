// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/jcodagnone/unigeo/geocoding"
)

var (
	titleColor = color.New(color.Bold)
	coordColor = color.New(color.FgCyan)
	dimColor   = color.New(color.Faint)
	warnColor  = color.New(color.FgYellow)
)

// printResults writes a human readable listing. h3Res > 0 adds the H3 cell
// at that resolution.
func printResults(w io.Writer, provider string, results []geocoding.UnifiedResult, h3Res int) error {
	if len(results) == 0 {
		_, err := warnColor.Fprintf(w, "no results from %s\n", provider)

		return err
	}

	for i := range results {
		if err := printResult(w, i+1, &results[i], h3Res); err != nil {
			return err
		}
	}

	return nil
}

func printResult(w io.Writer, n int, r *geocoding.UnifiedResult, h3Res int) error {
	title := r.FormattedAddress
	if title == "" {
		title = "(no formatted address)"
	}

	if _, err := titleColor.Fprintf(w, "%d. %s\n", n, title); err != nil {
		return err
	}

	if p, ok := r.Point(); ok {
		line := coordColor.Sprintf("%.6f, %.6f", p.Lat, p.Lng)

		if h3Res > 0 {
			cell, err := p.Cell(h3Res)
			if err != nil {
				return err
			}

			line += dimColor.Sprintf("  h3 %s", cell)
		}

		if _, err := fmt.Fprintf(w, "   %s\n", line); err != nil {
			return err
		}
	}

	if fields := describe(r); fields != "" {
		if _, err := fmt.Fprintf(w, "   %s\n", fields); err != nil {
			return err
		}
	}

	if extra := describeExtra(r.Extra); extra != "" {
		if _, err := dimColor.Fprintf(w, "   %s\n", extra); err != nil {
			return err
		}
	}

	return nil
}

func describe(r *geocoding.UnifiedResult) string {
	var parts []string

	add := func(name, value string) {
		if value != "" {
			parts = append(parts, name+"="+value)
		}
	}

	street := strings.TrimSpace(r.StreetName + " " + r.StreetNumber)
	add("street", street)
	add("neighbourhood", r.Neighbourhood)
	add("district", r.District)
	add("city", r.City)
	add("zipcode", r.Zipcode)
	add("county", r.County)
	add("state", r.State)
	add("region", r.Region)
	add("country", r.Country)
	add("code", r.CountryCode)
	add("building", r.Building)

	return strings.Join(parts, " ")
}

func describeExtra(e geocoding.Extra) string {
	var parts []string

	if _, ok := e[geocoding.ExtraConfidence]; ok {
		parts = append(parts, "confidence="+strconv.FormatFloat(e.Confidence(), 'f', -1, 64))
	}

	if id := e.ID(); id != "" {
		parts = append(parts, "id="+id)
	}

	if bbox := e.BBox(); len(bbox) == 4 {
		parts = append(parts, fmt.Sprintf("bbox=%g,%g,%g,%g", bbox[0], bbox[1], bbox[2], bbox[3]))
	}

	return strings.Join(parts, " ")
}
