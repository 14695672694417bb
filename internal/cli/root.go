// Package cli implements the capctl command line tool.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/arnavshah/capacity-planner-api/pkg/config"
	"github.com/arnavshah/capacity-planner-api/pkg/database"
	"github.com/arnavshah/capacity-planner-api/pkg/logger"
)

// NewRootCmd builds the capctl command tree
func NewRootCmd() *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:   "capctl",
		Short: "capctl inspects capacity forecasts and rules",
		Long: `capctl works directly against the planner database configured through
DATABASE_URL or DATA_PATH, the same settings the API server reads.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "Path to a config file")

	open := func() (*database.Store, func(), error) {
		return openStore(configFile)
	}
	root.AddCommand(newForecastCmd(open))
	root.AddCommand(newRulesCmd(open))
	return root
}

// Execute is the entry point called from main.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type storeOpener func() (*database.Store, func(), error)

func openStore(configFile string) (*database.Store, func(), error) {
	config.LoadDotEnv()
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, nil, err
	}
	zapLogger, err := logger.NewLogger(&cfg.Log)
	if err != nil {
		return nil, nil, err
	}

	db, err := database.Open(&cfg.Database, zapLogger)
	if err != nil {
		return nil, nil, err
	}
	return database.NewStore(db), func() { closeDB(db, zapLogger) }, nil
}

func closeDB(db *gorm.DB, zapLogger *zap.Logger) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = zapLogger.Sync()
}
