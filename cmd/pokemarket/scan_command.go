package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/codyseavey/pokemarket/internal/capture"
	"github.com/codyseavey/pokemarket/internal/client"
	"github.com/codyseavey/pokemarket/internal/models"
)

type scanResult struct {
	Identification *models.CardIdentification `json:"identification"`
	Saved          *models.Card               `json:"saved,omitempty"`
}

func newScanCommand(ctx *commandContext) *cobra.Command {
	var save bool

	cmd := &cobra.Command{
		Use:   "scan <image>",
		Short: "Identify a card from a JPEG photo",
		Long:  "Identify a card from a JPEG photo. The result is discarded unless --save is given.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			vc, err := ctx.visionClient()
			if err != nil {
				return err
			}
			cc, err := ctx.collectionClient()
			if err != nil {
				return err
			}

			flow := capture.NewFlow(capture.FileDevice{Path: args[0]}, vc, cc, nil)
			if err := flow.RequestPermission(cmd.Context()); err != nil {
				if errors.Is(err, capture.ErrPermissionDenied) {
					return fmt.Errorf("cannot read image %s", args[0])
				}
				return err
			}
			if err := flow.Open(); err != nil {
				return err
			}

			id, err := flow.Capture(cmd.Context())
			if err != nil {
				return errors.New(client.UserMessage(err))
			}

			result := scanResult{Identification: id}
			if save {
				card, err := flow.Save(cmd.Context())
				if err != nil {
					return fmt.Errorf("save card: %s", client.UserMessage(err))
				}
				result.Saved = card
			} else if err := flow.Discard(); err != nil {
				return err
			}

			if f := ctx.outputFormat(); f != outputTable {
				return writeStructured(cmd, f, result)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderKeyValues([][2]string{
				{"Card", id.CardName},
				{"Set", id.SetName},
				{"Number", id.CardNumber},
				{"Rarity", id.Rarity},
				{"Condition", id.Condition},
				{"Confidence", id.Confidence},
			}))
			if result.Saved != nil {
				fmt.Fprintf(out, "Saved to portfolio as card %s\n", strconv.FormatUint(uint64(result.Saved.ID), 10))
			} else {
				fmt.Fprintln(out, "Not saved (use --save to add it to your portfolio)")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&save, "save", false, "Save the identified card to the portfolio")
	return cmd
}
