package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ivankudzin/botgate/internal/app/botapp"
	"github.com/ivankudzin/botgate/internal/config"
	"github.com/ivankudzin/botgate/internal/infra/logger"
	pgrepo "github.com/ivankudzin/botgate/internal/repo/postgres"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgPath string

	rootCmd := &cobra.Command{
		Use:          "botgate",
		Short:        "hold bots added to Telegram groups until a moderator approves them",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", defaultConfigPath(), "path to YAML config (env: APP_CONFIG)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "run the approval bot",
		Long: `Connects to the Telegram Bot API, watches group chats for new bot accounts
and asks moderators to approve each one before the approval timeout expires.

Examples:
  BOT_TOKEN=xxx POSTGRES_DSN=postgres://... botgate serve
  botgate serve --config configs/botgate.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), cfgPath)
		},
	}

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "apply audit log schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigrate(cmd.Context(), cfgPath)
		},
	}

	rootCmd.AddCommand(serveCmd, migrateCmd)
	return rootCmd
}

func defaultConfigPath() string {
	if path := os.Getenv("APP_CONFIG"); path != "" {
		return path
	}
	return "configs/config.yaml"
}

func setup(cfgPath string) (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, log, nil
}

func runServe(parent context.Context, cfgPath string) error {
	cfg, log, err := setup(cfgPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = log.Sync()
	}()

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := botapp.New(ctx, cfg, log)
	if err != nil {
		log.Error("create bot app", zap.Error(err))
		return err
	}
	defer app.Close()

	if err := app.Run(ctx); err != nil {
		log.Error("bot app failed", zap.Error(err))
		return err
	}
	return nil
}

func runMigrate(ctx context.Context, cfgPath string) error {
	cfg, log, err := setup(cfgPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = log.Sync()
	}()

	if cfg.Postgres.DSN == "" {
		return fmt.Errorf("POSTGRES_DSN is required for migrate")
	}

	db, err := pgrepo.Open(ctx, cfg.Postgres.DSN)
	if err != nil {
		return err
	}
	defer db.Close()

	version, err := pgrepo.Migrate(ctx, db, log)
	if err != nil {
		log.Error("migrate", zap.Error(err))
		return err
	}
	log.Info("schema up to date", zap.Int64("version", version))
	return nil
}
