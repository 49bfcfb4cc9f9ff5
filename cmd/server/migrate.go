package main

import (
	"github.com/anonto42/writers-guild/backend/internal/models"
	"github.com/anonto42/writers-guild/backend/pkg/config"
	"github.com/anonto42/writers-guild/backend/pkg/logger"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "runs the relational schema migrations and exits",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log := logger.New(cfg.Env, cfg.LogLevel)

			db, err := config.OpenGorm(postgres.Open(cfg.PostgresConnStr))
			if err != nil {
				return errors.Wrap(err, "unable to connect to PostgreSQL")
			}
			if sqlDB, err := db.DB(); err == nil {
				defer sqlDB.Close()
			}

			if err := models.AutoMigrate(db); err != nil {
				return errors.Wrap(err, "migration failed")
			}
			logger.Component(log, "migrate").Info("migrations applied")
			return nil
		},
	}
}
