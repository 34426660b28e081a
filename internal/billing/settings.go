package billing

import (
	"context"       // Request scoped cancellation
	"encoding/json" // JSON encoding
	"fmt"           // Error wrapping

	"xpanel/internal/domain" // Importing domain models

	"github.com/shopspring/decimal" // Exact money arithmetic
	"gorm.io/gorm"                  // GORM ORM library
	"gorm.io/gorm/clause"           // Row locking and upserts
)

// Settings is the typed view of the settings table
type Settings struct {
	SiteName       string            `json:"site_name"`
	CommissionRate decimal.Decimal   `json:"commission_rate"`
	MinWithdrawal  decimal.Decimal   `json:"min_withdrawal"`
	Currency       string            `json:"currency"`
	PaymentMethods []string          `json:"payment_methods"`
	Extra          map[string]string `json:"extra,omitempty"` // Keys without a typed field
}

// LoadSettings reads every stored setting on top of the defaults
func LoadSettings(db *gorm.DB) (*Settings, error) {
	values := make(map[string]string, len(domain.DefaultSettings))
	for k, v := range domain.DefaultSettings { // Start from defaults
		values[k] = v
	}
	var rows []domain.Setting
	if err := db.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	for _, r := range rows {
		values[r.Key] = r.Value // Stored values override defaults
	}

	s := &Settings{
		SiteName: values[domain.SettingSiteName],
		Currency: values[domain.SettingCurrency],
		Extra:    map[string]string{},
	}
	s.CommissionRate = parseDecimal(values[domain.SettingCommissionRate], domain.DefaultSettings[domain.SettingCommissionRate])
	s.MinWithdrawal = parseDecimal(values[domain.SettingMinWithdrawal], domain.DefaultSettings[domain.SettingMinWithdrawal])
	if err := json.Unmarshal([]byte(values[domain.SettingPaymentMethods]), &s.PaymentMethods); err != nil {
		_ = json.Unmarshal([]byte(domain.DefaultSettings[domain.SettingPaymentMethods]), &s.PaymentMethods)
	}
	for k, v := range values {
		if _, known := domain.DefaultSettings[k]; !known {
			s.Extra[k] = v
		}
	}
	return s, nil
}

func parseDecimal(v, fallback string) decimal.Decimal {
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.RequireFromString(fallback)
	}
	return d
}

// Settings returns the current site settings
func (s *Service) Settings(ctx context.Context) (*Settings, error) {
	return LoadSettings(s.DB.WithContext(ctx))
}

// SaveSettings validates known keys and upserts all values
func (s *Service) SaveSettings(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return fmt.Errorf("%w: no settings given", domain.ErrInvalidInput)
	}
	if v, ok := values[domain.SettingCommissionRate]; ok {
		rate, err := decimal.NewFromString(v)
		if err != nil || rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
			return fmt.Errorf("%w: commission_rate must be between 0 and 1", domain.ErrInvalidInput)
		}
	}
	if v, ok := values[domain.SettingMinWithdrawal]; ok {
		minimum, err := decimal.NewFromString(v)
		if err != nil || minimum.IsNegative() {
			return fmt.Errorf("%w: min_withdrawal must be a non-negative number", domain.ErrInvalidInput)
		}
	}
	if v, ok := values[domain.SettingPaymentMethods]; ok {
		var methods []string
		if err := json.Unmarshal([]byte(v), &methods); err != nil {
			return fmt.Errorf("%w: payment_methods must be a JSON array", domain.ErrInvalidInput)
		}
	}

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for k, v := range values {
			row := domain.Setting{Key: k, Value: v}
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "setting_key"}}, // Upsert on the key
				DoUpdates: clause.AssignmentColumns([]string{"value"}),
			}).Create(&row).Error
			if err != nil {
				return fmt.Errorf("save setting %s: %w", k, err)
			}
		}
		return nil
	})
}
