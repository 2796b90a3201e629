// Package cli provides the command-line interface for cinemabot.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/ashureev/cinemabot/internal/catalog"
	"github.com/ashureev/cinemabot/internal/config"
	"github.com/ashureev/cinemabot/internal/store"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	envFile string

	cfg        *config.Config
	logger     *slog.Logger
	logCleanup func() error
)

var rootCmd = &cobra.Command{
	Use:   "cinemabot",
	Short: "Telegram bot that finds films and series in the Kinopoisk catalog",
	Long: `Cinemabot answers a film or series title with its poster, ratings,
description and official viewing links, and keeps a per-user search history.

Run 'cinemabot serve' to start the bot; the other commands are operator tools
working against the same configuration and database.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "version" {
			return nil
		}

		if err := godotenv.Load(envFile); err != nil {
			if envFile != ".env" || !os.IsNotExist(err) {
				return fmt.Errorf("load %s: %w", envFile, err)
			}
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}

		logger, logCleanup = config.SetupLogger(cfg.Log)
		slog.SetDefault(logger)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCleanup != nil {
			if err := logCleanup(); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
			}
		}
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(historyCmd)
}

func openRepository() (store.Repository, error) {
	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open history store: %w", err)
	}
	return repo, nil
}

func newResolver() *catalog.Service {
	return catalog.New(catalog.Options{
		SearchURL: cfg.Catalog.SearchURL,
		Site:      cfg.Catalog.Site,
		APIURL:    cfg.Catalog.APIURL,
		Token:     cfg.Catalog.Token,
		Timeout:   cfg.Catalog.HTTPTimeout,
		Attempts:  cfg.Catalog.RetryAttempts,
	}, logger)
}

func closeRepository(repo store.Repository) {
	if err := repo.Close(); err != nil {
		logger.Error("Failed to close repository", "error", err)
	}
}
