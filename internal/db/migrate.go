package db

import (
	"fmt"

	"xpanel/internal/domain" // Importing domain models

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Models lists every table managed by AutoMigrate
var Models = []any{
	&domain.User{},
	&domain.Plan{},
	&domain.Order{},
	&domain.Server{},
	&domain.RedemptionCode{},
	&domain.UserSubscription{},
	&domain.ReferralCommission{},
	&domain.CommissionWithdrawal{},
	&domain.BalanceLog{},
	&domain.Setting{},
}

// Migrate creates or updates the schema and seeds default settings
func Migrate(db *gorm.DB) error {
	// AutoMigrate will create tables, missing columns and indexes
	if err := db.AutoMigrate(Models...); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	if err := SeedSettings(db); err != nil {
		return err
	}
	logrus.Info("Migration completed.") // Log successful migration
	return nil
}

// SeedSettings inserts defaults without overwriting stored values
func SeedSettings(db *gorm.DB) error {
	for key, value := range domain.DefaultSettings {
		s := domain.Setting{Key: key, Value: value}
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&s).Error; err != nil {
			return fmt.Errorf("seed setting %s: %w", key, err)
		}
	}
	return nil
}
