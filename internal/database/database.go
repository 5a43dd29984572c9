package database

import (
	"fmt"

	"github.com/0xdevcollins/boundless-backend/internal/config"
	"github.com/0xdevcollins/boundless-backend/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

func Init(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
		NamingStrategy: &schema.NamingStrategy{
			SingularTable: true,
		},
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Migrate runs the schema migration. Tests share this list against an
// in-memory database.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Project{},
		&model.ProjectTeamMember{},
		&model.Vote{},
		&model.CrowdfundThreshold{},
		&model.Campaign{},
		&model.CampaignMilestone{},
		&model.Contribution{},
		&model.Grant{},
		&model.GrantMilestoneTemplate{},
		&model.GrantApplication{},
		&model.ApplicationMilestone{},
		&model.SettlementRecord{},
		&model.Event{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
