// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/jcodagnone/unigeo/config"
	"github.com/spf13/cobra"
)

var (
	settings   = config.New()
	appConfig  *config.Config
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "unigeo",
	Short: "one forward geocoding interface over Google, HERE and Mapbox",
	Long: `
unigeo sends a free text address to Google Maps, HERE or Mapbox and prints the
matches in a single normalized shape, regardless of the provider.

Credentials come from the configuration file, UNIGEO_<PROVIDER>_API_KEY or the
provider's usual variable (GOOGLE_MAPS_API_KEY, HERE_API_KEY, MAPBOX_ACCESS_TOKEN).
`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(settings, configPath)
		if err != nil {
			return err
		}

		appConfig = cfg
		logger := cfg.NewLogger(os.Stderr)
		cmd.SetContext(logger.WithContext(cmd.Context()))

		return nil
	},
}

var Version = "dev"

func Execute(version string) {
	Version = version
	settings.SetDefault("http.user_agent", "unigeo/"+version)

	err := rootCmd.ExecuteContext(context.Background())
	if err != nil {
		os.Exit(1)
	}
}

// bindFlag makes a flag override the configuration key.
func bindFlag(cmd *cobra.Command, key, flag string) {
	f := cmd.Flags().Lookup(flag)
	if f == nil {
		f = cmd.PersistentFlags().Lookup(flag)
	}

	if err := settings.BindPFlag(key, f); err != nil {
		panic(fmt.Sprintf("binding flag %s: %v", flag, err))
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "configuration file (default ./unigeo.yaml or $HOME/.config/unigeo/unigeo.yaml)")
	flags.String("log-level", "info", "log level: trace, debug, info, warn, error")
	flags.String("log-format", "console", "log format: console or json")
	flags.Bool("http-trace", false, "dump HTTP exchanges to stderr, credentials redacted")
	flags.Bool("http-body-trace", false, "include response bodies in the HTTP dump")

	bindFlag(rootCmd, "log.level", "log-level")
	bindFlag(rootCmd, "log.format", "log-format")
	bindFlag(rootCmd, "http.trace", "http-trace")
	bindFlag(rootCmd, "http.trace_body", "http-body-trace")
}
