// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/jcodagnone/unigeo/geocoding"
	"github.com/jcodagnone/unigeo/history"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	forwardOptions = &requestOptions{}
	forwardJSON    bool
	forwardH3      int
)

var forwardCmd = &cobra.Command{
	Use:   "forward <query...>",
	Short: "Geocode a free text address",
	Long: `Sends the query to one provider and prints the normalized matches.

$ unigeo forward --provider here --country FRA "rue de rivoli, paris"
1. Rue de Rivoli, 75001 Paris, France
   48.860600, 2.337600
   street=Rue de Rivoli city=Paris zipcode=75001 country=France code=FR
   confidence=0.95 id=here:af:street:...
`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg := appConfig
		provider := forwardOptions.provider

		g, err := newGeocoder(cfg, provider)
		if err != nil {
			return err
		}

		req, err := forwardOptions.request(strings.Join(args, " "))
		if err != nil {
			return err
		}

		req.APIKey, err = newResolver(cfg).Resolve(ctx, provider, forwardOptions.key)
		if err != nil {
			return err
		}

		stop := newSpinner("Geocoding with " + provider)
		start := time.Now()
		results, err := g.Forward(ctx, req)
		took := time.Since(start)
		stop()

		zerolog.Ctx(ctx).Debug().
			Str("provider", provider).
			Int("results", len(results)).
			Dur("took", took).
			Err(err).
			Msg("forward geocoding done")

		if forwardOptions.record {
			recordLookup(ctx, history.NewLookup(provider, req, results, err, took))
		}

		if err != nil {
			return err
		}

		if forwardJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")

			return enc.Encode(results)
		}

		return printResults(cmd.OutOrStdout(), provider, results, forwardH3)
	},
}

// recordLookup stores a lookup; a failure is only logged.
func recordLookup(ctx context.Context, lookup *history.Lookup) {
	log := zerolog.Ctx(ctx)

	repo, err := openHistory(appConfig)
	if err != nil {
		log.Error().Err(err).Msg("opening history")

		return
	}
	defer repo.DB().Close()

	if err := repo.SaveLookup(ctx, lookup); err != nil {
		log.Error().Err(err).Msg("recording lookup")

		return
	}

	log.Debug().Int64("id", lookup.ID).Str("store", appConfig.Store.Path).Msg("lookup recorded")
}

func addRequestFlags(cmd *cobra.Command, o *requestOptions) {
	flags := cmd.Flags()
	flags.StringVarP(&o.provider, "provider", "p", geocoding.ProviderGoogle, "provider: "+strings.Join(geocoding.Providers(), ", "))
	flags.StringVar(&o.key, "key", "", "provider API key, overrides the configuration")
	flags.StringVarP(&o.language, "language", "l", "", "language of the results")
	flags.StringVarP(&o.country, "country", "c", "", "ISO country code; a hint for google, a filter for here and mapbox")
	flags.IntVarP(&o.limit, "limit", "n", 0, "maximum number of results (0 uses default_limit)")
	flags.StringArrayVarP(&o.options, "opt", "o", nil, "provider specific parameter key=value, repeatable")
	flags.BoolVar(&o.record, "record", false, "save the lookup in the history store")
}

func init() {
	addRequestFlags(forwardCmd, forwardOptions)
	forwardCmd.Flags().BoolVar(&forwardJSON, "json", false, "print the results as JSON")
	forwardCmd.Flags().IntVar(&forwardH3, "h3", 0, "show the H3 cell at this resolution (1-15, 0 hides it)")
	rootCmd.AddCommand(forwardCmd)
}
