package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/codyseavey/pokemarket/internal/analytics"
	"github.com/codyseavey/pokemarket/internal/client"
	"github.com/codyseavey/pokemarket/internal/views"
)

type homeSummary struct {
	Backend          string  `json:"backend"`
	VisionConfigured bool    `json:"vision_configured"`
	Cards            int     `json:"cards"`
	TotalValue       float64 `json:"total_value"`
	Error            string  `json:"error,omitempty"`
}

func newHomeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "home",
		Short: "Show the portfolio summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHome(cmd, ctx)
		},
	}
}

func runHome(cmd *cobra.Command, ctx *commandContext) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	cc, err := ctx.collectionClient()
	if err != nil {
		return err
	}

	summary := homeSummary{
		Backend:          cfg.Backend.URL,
		VisionConfigured: cfg.Vision.APIKey != "",
	}

	view := views.NewPortfolioView(cc, nil)
	defer view.Close()
	if err := view.Load(cmd.Context()); err != nil {
		summary.Error = client.UserMessage(err)
	} else {
		summary.Cards = len(view.Cards())
		summary.TotalValue = view.TotalValue()
	}

	if f := ctx.outputFormat(); f != outputTable {
		return writeStructured(cmd, f, summary)
	}

	colorize := shouldColorize(cmd.OutOrStdout())
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, bold("PokéMarket AI", colorize))
	fmt.Fprintln(out, "Your AI-Powered Card Portfolio")
	fmt.Fprintln(out)

	total := summary.TotalValue
	pairs := [][2]string{
		{"Backend", summary.Backend},
		{"Card scanning", yesNo(summary.VisionConfigured)},
		{"Cards", strconv.Itoa(summary.Cards)},
		{"Total value", analytics.FormatPrice(&total)},
	}
	fmt.Fprintln(out, renderKeyValues(pairs))
	if summary.Error != "" {
		fmt.Fprintln(out, summary.Error)
	}
	return nil
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
