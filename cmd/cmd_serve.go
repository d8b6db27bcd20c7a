// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/jcodagnone/unigeo/geocoding"
	"github.com/jcodagnone/unigeo/history"
	"github.com/jcodagnone/unigeo/server"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var serveRecord bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Expose the geocoders over HTTP",
	Long: `Serves:

  GET /api/providers
  GET /api/geocode/:provider?q=&language=&country=&limit=&opt.<name>=<value>
  GET /api/history?provider=&q=&limit=&offset=

Callers may send their own provider key in the X-Api-Key header.
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg := appConfig
		log := zerolog.Ctx(cmd.Context())

		if log.GetLevel() > zerolog.DebugLevel {
			gin.SetMode(gin.ReleaseMode)
		}

		fetcher := newFetcher(cfg)

		var geocoders []geocoding.Geocoder

		for _, name := range geocoding.Providers() {
			g, err := geocoding.New(name, cfg.ProviderConfig(name, fetcher))
			if err != nil {
				return err
			}

			geocoders = append(geocoders, g)
		}

		var repo history.Repository

		if serveRecord {
			var err error

			repo, err = openHistory(cfg)
			if err != nil {
				return fmt.Errorf("opening history: %w", err)
			}
			defer repo.DB().Close()

			log.Info().Str("store", cfg.Store.Path).Msg("recording lookups")
		}

		return server.NewServer(geocoders, newResolver(cfg), repo, *log).Run(cfg.Server.Addr)
	},
}

func init() {
	serveCmd.Flags().String("addr", ":8080", "listen address")
	serveCmd.Flags().BoolVar(&serveRecord, "record", false, "save every lookup in the history store")
	bindFlag(serveCmd, "server.addr", "addr")
	rootCmd.AddCommand(serveCmd)
}
