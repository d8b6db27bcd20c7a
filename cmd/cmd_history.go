// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"cmp"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/jcodagnone/unigeo/history"
	"github.com/jcodagnone/unigeo/spatial"
	"github.com/spf13/cobra"
)

var (
	historyFilter = history.Filter{}
	historyJSON   bool
	historyNear   string
	historyRes    int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List the recorded lookups",
	Long: `Lists the lookups saved with --record, newest first. --query matches
ignoring case and accents. --near lists the stored results in the H3 cell
containing a point instead.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		repo, err := openHistory(appConfig)
		if err != nil {
			return err
		}
		defer repo.DB().Close()

		out := cmd.OutOrStdout()

		if historyNear != "" {
			p, err := parsePoint(historyNear)
			if err != nil {
				return err
			}

			cell, err := p.Cell(historyRes)
			if err != nil {
				return err
			}

			results, err := repo.ResultsInCell(ctx, cell)
			if err != nil {
				return fmt.Errorf("listing results in %s: %w", cell, err)
			}

			if historyJSON {
				return json.NewEncoder(out).Encode(results)
			}

			sortByDistance(p, results)

			return printCellResults(out, p, cell.String(), results)
		}

		total, err := repo.CountLookups(ctx, historyFilter)
		if err != nil {
			return fmt.Errorf("counting lookups: %w", err)
		}

		lookups, err := repo.ListLookups(ctx, historyFilter)
		if err != nil {
			return fmt.Errorf("listing lookups: %w", err)
		}

		if historyJSON {
			return json.NewEncoder(out).Encode(lookups)
		}

		return printLookups(out, total, lookups)
	},
}

// parsePoint reads "lat,lng".
func parsePoint(s string) (spatial.Point, error) {
	latS, lngS, ok := strings.Cut(s, ",")
	if !ok {
		return spatial.Point{}, fmt.Errorf("invalid point %q, want lat,lng", s)
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(latS), 64)
	if err != nil {
		return spatial.Point{}, fmt.Errorf("invalid latitude %q: %w", latS, err)
	}

	lng, err := strconv.ParseFloat(strings.TrimSpace(lngS), 64)
	if err != nil {
		return spatial.Point{}, fmt.Errorf("invalid longitude %q: %w", lngS, err)
	}

	p := spatial.Point{Lat: lat, Lng: lng}
	if !p.Valid() {
		return spatial.Point{}, fmt.Errorf("point out of range: %s", s)
	}

	return p, nil
}

func printLookups(w io.Writer, total int, lookups []*history.Lookup) error {
	a, b, c, d := strings.Repeat("─", 19), strings.Repeat("─", 6), strings.Repeat("─", 40), strings.Repeat("─", 7)

	fmt.Fprintf(w, "╭─%s─┬─%s─┬─%s─┬─%s─╮\n", a, b, c, d)
	fmt.Fprintf(w, "│ %-19s │ %-6s │ %-40s │ %7s │\n", "When", "Source", "Query", "Results")
	fmt.Fprintf(w, "├─%s─┼─%s─┼─%s─┼─%s─┤\n", a, b, c, d)

	for _, l := range lookups {
		count := strconv.Itoa(l.ResultCount)
		if l.Error != "" {
			count = "error"
		}

		fmt.Fprintf(w, "│ %-19s │ %-6s │ %-40s │ %7s │\n",
			l.CreatedAt.Format("2006-01-02 15:04:05"), l.Provider, truncate(l.Query, 40), count)
	}

	_, err := fmt.Fprintf(w, "╰─%s─┴─%s─┴─%s─┴─%s─╯\n%d of %d lookups\n", a, b, c, d, len(lookups), total)

	return err
}

// sortByDistance orders results nearest to p first.
func sortByDistance(p spatial.Point, results []*history.Result) {
	distance := func(r *history.Result) float64 {
		rp, ok := r.Result.Point()
		if !ok {
			return math.Inf(1)
		}

		return p.HaversineDistance(rp)
	}

	slices.SortStableFunc(results, func(a, b *history.Result) int {
		return cmp.Compare(distance(a), distance(b))
	})
}

func printCellResults(w io.Writer, from spatial.Point, cell string, results []*history.Result) error {
	if _, err := titleColor.Fprintf(w, "%d stored results in h3 cell %s\n", len(results), cell); err != nil {
		return err
	}

	for i, r := range results {
		if err := printResult(w, i+1, &r.Result, 0); err != nil {
			return err
		}

		if rp, ok := r.Result.Point(); ok {
			if _, err := fmt.Fprintf(w, "   %s\n", dimColor.Sprintf("%.0f m away", from.HaversineDistance(rp))); err != nil {
				return err
			}
		}
	}

	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}

	return string(r[:n-1]) + "…"
}

func init() {
	flags := historyCmd.Flags()
	flags.StringVarP(&historyFilter.Provider, "provider", "p", "", "only lookups of this provider")
	flags.StringVarP(&historyFilter.Query, "query", "q", "", "only lookups whose query contains this text")
	flags.IntVarP(&historyFilter.Limit, "limit", "n", 20, "maximum number of lookups")
	flags.IntVar(&historyFilter.Offset, "offset", 0, "lookups to skip")
	flags.BoolVar(&historyJSON, "json", false, "print as JSON")
	flags.StringVar(&historyNear, "near", "", "list stored results in the H3 cell of lat,lng")
	flags.IntVar(&historyRes, "res", 7, "H3 resolution for --near: 5, 7 or 9")
	rootCmd.AddCommand(historyCmd)
}
