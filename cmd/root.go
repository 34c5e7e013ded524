/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/SvenDH/card-wars/config"
	"github.com/SvenDH/card-wars/game"
)

var (
	cfg    *config.Config
	logger = logrus.New()

	envFile   string
	logLevel  string
	logFile   string
	cardsFile string
	seed      int64
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "cardwars",
	Short: "Card Wars: draw cards, spend mana, fill the field",
	Long: `Card Wars is a small trading card game. Load the card catalog, draw up to
five cards into your hand and play them onto a field of four slots while your
mana lasts. Play it in the terminal or serve it over websockets.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(envFile)
		if err != nil {
			return err
		}
		flags := cmd.Flags()
		if flags.Changed("log-level") {
			cfg.LogLevel = logLevel
		}
		if flags.Changed("log-file") {
			cfg.LogFile = logFile
		}
		if flags.Changed("cards") {
			cfg.Cards = cardsFile
		}
		if flags.Changed("seed") {
			cfg.Seed = seed
		}
		return setupLogger(cfg)
	},
}

func setupLogger(cfg *config.Config) error {
	level, err := cfg.Level()
	if err != nil {
		return err
	}
	logger.SetLevel(level)
	logger.SetOutput(os.Stderr)
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		logger.SetOutput(f)
	}
	return nil
}

// newLoader builds the asset loader for the configured catalog.
func newLoader(source game.CatalogSource) *game.Loader {
	return game.NewLoader(source, cfg.LoadDelay, logger)
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Dotenv file to load before reading CARDWARS_* variables")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to this file instead of stderr")
	rootCmd.PersistentFlags().StringVar(&cardsFile, "cards", "", "Card catalog file (default: built-in catalog)")
	rootCmd.PersistentFlags().Int64Var(&seed, "seed", 0, "Seed for card draws (0: random)")
}

// discardLogs is used by the terminal UI when no log file is set.
func discardLogs() {
	logger.SetOutput(io.Discard)
}
