package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"slices"
	"strings"
	"syscall"

	"github.com/phrazzld/yomu-api/internal/config"
	"github.com/phrazzld/yomu-api/internal/platform/logger"
	"github.com/phrazzld/yomu-api/internal/platform/postgres"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// flagBindings maps command-line flags to configuration keys.
var flagBindings = map[string]string{
	"port":      "server.port",
	"log-level": "server.log_level",
	"db-driver": "database.driver",
	"db-url":    "database.url",
	"db-path":   "database.path",
}

func newRootCmd() *cobra.Command {
	v := config.NewViper()
	var configFile string

	root := &cobra.Command{
		Use:           "yomu",
		Short:         "Japanese vocabulary capture and spaced-repetition review server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&configFile, "config", "c", "", "Path to a config file (default: ./config.yaml when present)")
	flags.Int("port", 0, "HTTP port")
	flags.String("log-level", "", "Log level: debug, info, warn, error")
	flags.String("db-driver", "", "Store backend: postgres or sqlite")
	flags.String("db-url", "", "Postgres connection URL")
	flags.String("db-path", "", "SQLite database file")

	root.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		return bindFlags(v, cmd)
	}

	loadConfig := func() (*config.Config, *slog.Logger, error) {
		cfg, err := config.Load(v, configFile)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
		}
		log, err := logger.Setup(cfg.Server)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to set up logger: %w", err)
		}
		return cfg, log, nil
	}

	root.AddCommand(newServeCmd(loadConfig), newMigrateCmd(loadConfig))
	return root
}

// bindFlags binds only the flags the user actually set, so unset flags do
// not shadow environment variables and config file values.
func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	for name, key := range flagBindings {
		f := cmd.Flags().Lookup(name)
		if f == nil || !f.Changed {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}
	return nil
}

type configLoader func() (*config.Config, *slog.Logger, error)

func newServeCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := load()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			app, err := newApplication(ctx, cfg, log)
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			return app.Run(ctx)
		},
	}
}

func newMigrateCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [" + strings.Join(postgres.MigrationCommands, "|") + "]",
		Short:     "Run Postgres schema migrations",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), validMigrationCommand),
		ValidArgs: postgres.MigrationCommands,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := load()
			if err != nil {
				return err
			}
			if cfg.Database.Driver != config.DriverPostgres {
				return fmt.Errorf("migrations apply to the postgres driver only; sqlite creates its schema on open")
			}
			return runMigration(cmd.Context(), cfg.Database, args[0], log)
		},
	}
}

func validMigrationCommand(_ *cobra.Command, args []string) error {
	if !slices.Contains(postgres.MigrationCommands, args[0]) {
		return fmt.Errorf("unknown migration command %q (expected one of %v)", args[0], postgres.MigrationCommands)
	}
	return nil
}

func runMigration(ctx context.Context, cfg config.DatabaseConfig, command string, log *slog.Logger) error {
	db, err := openPostgres(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	return postgres.Migrate(ctx, db, command, log)
}
