package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// DefaultDeviceLimit applies when a plan or server does not set one
const DefaultDeviceLimit = 3

// Plan is a purchasable service tier
type Plan struct {
	ID            uint                        `gorm:"primaryKey" json:"id"`
	Name          string                      `gorm:"size:128;not null" json:"name"`
	Description   string                      `gorm:"type:text" json:"description"`
	Price         decimal.Decimal             `gorm:"type:decimal(12,2);not null" json:"price"`
	OriginalPrice decimal.Decimal             `gorm:"type:decimal(12,2);not null" json:"original_price"`
	DurationDays  int                         `gorm:"not null" json:"duration_days"`
	TrafficGB     int                         `gorm:"column:traffic_gb;not null" json:"traffic_gb"`
	DeviceLimit   int                         `gorm:"not null" json:"device_limit"`
	Features      datatypes.JSONSlice[string] `json:"features"`
	SortOrder     int                         `gorm:"not null;index" json:"sort_order"`
	IsPopular     bool                        `gorm:"not null" json:"is_popular"`
	IsActive      bool                        `gorm:"not null;index" json:"is_active"`
	CreatedAt     time.Time                   `json:"created_at"`
	UpdatedAt     time.Time                   `json:"updated_at"`
}

// TrafficBytes is the quota granted by one period of the plan
func (p *Plan) TrafficBytes() int64 {
	return int64(p.TrafficGB) * GiB
}
