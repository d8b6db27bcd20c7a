// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/jcodagnone/unigeo/config"
	"github.com/jcodagnone/unigeo/geocoding"
	"github.com/spf13/cobra"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List the supported providers and their configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return printProviders(cmd.OutOrStdout(), appConfig)
	},
}

func printProviders(w io.Writer, cfg *config.Config) error {
	a, b, c := strings.Repeat("─", 8), strings.Repeat("─", 10), strings.Repeat("─", 50)

	fmt.Fprintf(w, "╭─%s─┬─%s─┬─%s─╮\n", a, b, c)
	fmt.Fprintf(w, "│ %-8s │ %-10s │ %-50s │\n", "Provider", "Key", "Endpoint")
	fmt.Fprintf(w, "├─%s─┼─%s─┼─%s─┤\n", a, b, c)

	for _, name := range geocoding.Providers() {
		key := "missing"
		if cfg.APIKey(name) != "" {
			key = "configured"
		} else if name == geocoding.ProviderGoogle && cfg.GCP.KeyDisplayName != "" {
			key = "via ADC"
		}

		endpoint := cfg.BaseURL(name)
		if endpoint == "" {
			endpoint = "default"
		}

		fmt.Fprintf(w, "│ %-8s │ %-10s │ %-50s │\n", name, key, truncate(endpoint, 50))
	}

	_, err := fmt.Fprintf(w, "╰─%s─┴─%s─┴─%s─╯\n", a, b, c)

	return err
}

func init() {
	rootCmd.AddCommand(providersCmd)
}
