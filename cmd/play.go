/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/SvenDH/card-wars/game"
	"github.com/SvenDH/card-wars/ui"
)

// playCmd represents the play command
var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play Card Wars in the terminal",
	Long: `Loads the card catalog behind a spinner and starts a game in the terminal.

Keys: d draws a card, left/right select a card in hand, enter or 1-5 plays it,
q quits.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.LogFile == "" {
			discardLogs()
		}
		source, err := cfg.Source()
		if err != nil {
			return err
		}
		session := game.NewSession(logger, cfg.EconomyOptions()...)
		err = ui.Run(cmd.Context(), session, newLoader(source))
		if errors.Is(err, tea.ErrProgramKilled) {
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(playCmd)
}
