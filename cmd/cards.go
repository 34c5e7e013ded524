/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/SvenDH/card-wars/game"
)

// cardsCmd represents the cards command
var cardsCmd = &cobra.Command{
	Use:   "cards [catalog-file]",
	Short: "Parse a card catalog and list its cards",
	Long:  `Parses a card catalog file (or the built-in catalog) and prints every card.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			cfg.Cards = args[0]
		}
		source, err := cfg.Source()
		if err != nil {
			return err
		}
		cards, err := source.Cards(cmd.Context())
		if err != nil {
			return err
		}
		return printCards(cmd.OutOrStdout(), cards)
	},
}

func printCards(out io.Writer, cards []*game.Card) error {
	if len(cards) == 0 {
		return game.ErrEmptyCatalog
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCOST\tATK\tDEF\tART")
	for _, c := range cards {
		fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%d\t%s\n", c.Id, c.Name, c.Cost, c.Attack, c.Defense, c.Image)
	}
	return w.Flush()
}

func init() {
	rootCmd.AddCommand(cardsCmd)
}
