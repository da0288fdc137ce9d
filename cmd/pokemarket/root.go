package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var flags rootFlags
	ctx := newCommandContext(&flags)

	rootCmd := &cobra.Command{
		Use:           "pokemarket",
		Short:         "Identify trading cards and track their market value",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if _, err := parseOutputFormat(flags.output); err != nil {
				return err
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHome(cmd, ctx)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&flags.config, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&flags.apiURL, "api-url", "", "Collection backend URL (overrides POKEMARKET_API_URL)")
	rootCmd.PersistentFlags().StringVarP(&flags.output, "output", "o", "table", "Output format: table, json or yaml")

	rootCmd.AddCommand(newHomeCommand(ctx))
	rootCmd.AddCommand(newScanCommand(ctx))
	rootCmd.AddCommand(newPortfolioCommand(ctx))
	rootCmd.AddCommand(newAnalyticsCommand(ctx))

	return rootCmd
}
