package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply schema migrations for the configured store",
	Long:  `Applies pending migrations for postgres and sqlite, or ensures indexes for mongo. The in-memory store needs nothing.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadEnvFiles(cmd); err != nil {
			return err
		}
		cfg, err := loadAppConfig()
		if err != nil {
			return err
		}
		log, err := newLogger(cfg.Log)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		store, err := openStore(ctx, cfg.StoreDriver, true, log)
		if err != nil {
			return err
		}
		store.close(context.WithoutCancel(ctx))

		log.InfoContext(ctx, "migrations applied", "driver", cfg.StoreDriver)
		return nil
	},
}
