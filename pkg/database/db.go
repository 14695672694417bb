package database

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/arnavshah/capacity-planner-api/pkg/config"
	"github.com/arnavshah/capacity-planner-api/pkg/models"
)

// rulesDocumentID is the primary key of the single capacity rules row
const rulesDocumentID = 1

// RulesDocument represents the capacity_rules table; it only ever holds one row
type RulesDocument struct {
	ID        uint      `gorm:"primaryKey"`
	Body      string    `gorm:"type:text;not null"`
	UpdatedAt time.Time
}

// TableName keeps the table name stable regardless of the struct name
func (RulesDocument) TableName() string {
	return "capacity_rules"
}

// Open connects to Postgres when a DATABASE_URL is configured, otherwise to
// the sqlite file at DATA_PATH, and migrates the schema
func Open(cfg *config.DatabaseConfig, logger *zap.Logger) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	}

	var (
		db  *gorm.DB
		err error
	)
	if cfg.URL != "" {
		gormCfg.PrepareStmt = false
		db, err = gorm.Open(postgres.New(postgres.Config{
			DSN:                  cfg.URL,
			PreferSimpleProtocol: true,
		}), gormCfg)
	} else {
		db, err = gorm.Open(sqlite.Open(cfg.Path), gormCfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	if cfg.URL != "" {
		logger.Info("database ready", zap.String("driver", "postgres"))
	} else {
		logger.Info("database ready", zap.String("driver", "sqlite"), zap.String("path", cfg.Path))
	}
	return db, nil
}

// Migrate creates or updates every table the service uses
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Staff{}, &models.Project{}, &models.Assignment{}, &RulesDocument{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}
