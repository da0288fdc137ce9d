package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/codyseavey/pokemarket/internal/analytics"
	"github.com/codyseavey/pokemarket/internal/client"
	"github.com/codyseavey/pokemarket/internal/models"
	"github.com/codyseavey/pokemarket/internal/views"
)

type portfolioOutput struct {
	Cards      []models.Card `json:"cards"`
	TotalValue float64       `json:"total_value"`
}

func newPortfolioCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "portfolio",
		Short: "List saved cards and their total value",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := ctx.collectionClient()
			if err != nil {
				return err
			}
			view := views.NewPortfolioView(cc, nil)
			defer view.Close()

			if err := view.Load(cmd.Context()); err != nil {
				return errors.New(client.UserMessage(err))
			}
			return renderPortfolio(cmd, ctx.outputFormat(), view.Cards(), view.TotalValue())
		},
	}

	cmd.AddCommand(newPortfolioDeleteCommand(ctx))
	return cmd
}

func newPortfolioDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <card-id>",
		Short: "Delete a card from the portfolio",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseCardID(args[0])
			if err != nil {
				return err
			}
			cc, err := ctx.collectionClient()
			if err != nil {
				return err
			}
			view := views.NewPortfolioView(cc, nil)
			defer view.Close()

			if err := view.Delete(cmd.Context(), id); err != nil {
				return fmt.Errorf("delete card %d: %s", id, client.UserMessage(err))
			}
			if ctx.outputFormat() == outputTable {
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted card %d\n", id)
			}
			return renderPortfolio(cmd, ctx.outputFormat(), view.Cards(), view.TotalValue())
		},
	}
}

func renderPortfolio(cmd *cobra.Command, format outputFormat, cards []models.Card, total float64) error {
	if cards == nil {
		cards = []models.Card{}
	}
	if format != outputTable {
		return writeStructured(cmd, format, portfolioOutput{Cards: cards, TotalValue: total})
	}

	out := cmd.OutOrStdout()
	if len(cards) == 0 {
		fmt.Fprintln(out, "No cards yet. Scan a card to start your portfolio.")
		return nil
	}

	rows := make([][]string, 0, len(cards))
	for _, c := range cards {
		rows = append(rows, []string{
			strconv.FormatUint(uint64(c.ID), 10),
			c.CardName,
			c.SetName,
			c.CardNumber,
			c.Condition,
			analytics.FormatPrice(c.MarketPrice),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"ID", "Card", "Set", "Number", "Condition", "Market"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
	))
	fmt.Fprintf(out, "%d cards, total value %s\n", len(cards), analytics.FormatPrice(&total))
	return nil
}

func parseCardID(s string) (uint, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid card id %q", s)
	}
	return uint(id), nil
}
