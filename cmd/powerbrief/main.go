package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/powerbrief-dev/powerbrief/db"
	"github.com/powerbrief-dev/powerbrief/internal/auth"
	"github.com/powerbrief-dev/powerbrief/internal/config"
	"github.com/powerbrief-dev/powerbrief/internal/logger"
	"github.com/spf13/cobra"
)

// Set at build time with -ldflags "-X main.version=...".
var version = "dev"

var configPath string

func main() {
	root := &cobra.Command{
		Use:           "powerbrief",
		Short:         "PowerBrief API server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", os.Getenv("POWERBRIEF_CONFIG"), "path to a YAML config file")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API and background jobs",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runServe(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply the database schema and exit",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runMigrate()
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the build version",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintln(cmd.OutOrStdout(), version)
			},
		},
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bootstrap loads settings, the logger and the database shared by every command.
func bootstrap() (*config.Config, logger.Logger, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, nil, fmt.Errorf("error loading .env file: %w", err)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	if err := logger.InitLogger(&cfg.Logger); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	log, err := logger.GetLogger()
	if err != nil {
		return nil, nil, err
	}

	if err := auth.InitJWT(cfg.Auth); err != nil {
		return nil, nil, err
	}

	if err := db.ConnectDatabase(cfg.Database); err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return cfg, log, nil
}

func runMigrate() error {
	_, log, err := bootstrap()
	if err != nil {
		return err
	}
	defer db.CloseDatabase()

	if err := db.MigrateDatabase(); err != nil {
		return err
	}

	log.Info("Database migrated")
	return nil
}
