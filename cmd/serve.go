/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/SvenDH/card-wars/server"
)

var (
	addr      string
	dbPath    string
	publicDir string
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve Card Wars over websockets",
	Long: `Starts the HTTP server. Players register or log in, then open /ws?token=...
to get their own game session. The card catalog is kept in sqlite and seeded from
the configured catalog file on first start.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		if flags.Changed("addr") {
			cfg.Addr = addr
		}
		if flags.Changed("db") {
			cfg.DB = dbPath
		}
		if flags.Changed("public") {
			cfg.PublicDir = publicDir
		}

		db, err := server.OpenDB(cfg.DB)
		if err != nil {
			return err
		}
		defer db.Close()
		repo, err := server.NewRepository(db)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := seedCatalog(ctx, repo); err != nil {
			return err
		}

		broker := server.NewMemoryBroker(logger)
		wsServer := server.NewWebsocketServer(broker, newLoader(repo), logger, cfg.EconomyOptions()...)
		secret, generated, err := cfg.Secret()
		if err != nil {
			return err
		}
		if generated {
			logger.Warn("CARDWARS_JWT_SECRET not set, using a random secret; tokens will not survive a restart")
		}
		auth := server.NewAuthenticator(secret)
		router := server.NewRouter(cfg.Addr, cfg.PublicDir, repo, auth, wsServer, logger)
		return router.Run(ctx)
	},
}

func seedCatalog(ctx context.Context, repo *server.Repository) error {
	source, err := cfg.Source()
	if err != nil {
		return err
	}
	cards, err := source.Cards(ctx)
	if err != nil {
		return err
	}
	n, err := repo.SeedCards(ctx, cards)
	if err != nil {
		return err
	}
	if n > 0 {
		logger.WithField("cards", n).Info("seeded card catalog")
	}
	return nil
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&addr, "addr", "a", ":8080", "HTTP service address")
	serveCmd.Flags().StringVar(&dbPath, "db", "cardwars.db", "Path to the sqlite database")
	serveCmd.Flags().StringVar(&publicDir, "public", "./public", "Directory with static files")
}
