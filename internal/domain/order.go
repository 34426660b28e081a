package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order statuses
const (
	OrderPending   = 0
	OrderPaid      = 1
	OrderCancelled = 2
	OrderRefunded  = 3
)

// Order Model
type Order struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	OrderNo        string          `gorm:"size:64;uniqueIndex;not null" json:"order_no"`
	UserID         uint            `gorm:"not null;index" json:"user_id"`
	PlanID         uint            `gorm:"not null;index" json:"plan_id"`
	Amount         decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"discount_amount"`
	FinalAmount    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"final_amount"`
	Status         int             `gorm:"not null;index" json:"status"`
	PaymentMethod  string          `gorm:"size:32" json:"payment_method"`
	TransactionID  string          `gorm:"size:128" json:"transaction_id"`
	ExpiresAt      time.Time       `json:"expires_at"`
	PaidAt         *time.Time      `json:"paid_at"`
	CreatedAt      time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`

	Plan *Plan `gorm:"foreignKey:PlanID" json:"plan,omitempty"`
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
