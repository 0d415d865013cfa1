package main

import (
	"github.com/AlexanderMakarov/tgjournals/internal/database"
	"github.com/AlexanderMakarov/tgjournals/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		defer logger.Cleanup()

		if err := database.Init(&cfg.Database); err != nil {
			return err
		}
		defer database.Close()

		if err := database.AutoMigrate(); err != nil {
			logger.Error("Migration failed", zap.Error(err))
			return err
		}
		logger.Info("Migration complete", zap.String("driver", cfg.Database.Driver))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
