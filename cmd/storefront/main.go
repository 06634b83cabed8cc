package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"storefront-bff/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "storefront",
	Short: "Stark Industries armor storefront",
	Long: `Serves the armor storefront: gallery, customizer, checkout and the
account dashboard, as HTML pages and a JSON API.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup()
	},
}

var cfg *config.Config

// setup loads .env outside production, reads the config and installs the
// JSON logger.
func setup() error {
	if os.Getenv("ENV") != "production" {
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to load .env: %w", err)
		}
	}

	var err error
	cfg, err = config.NewConfig()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
