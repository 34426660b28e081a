package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Commission statuses
const (
	CommissionPending   = 0
	CommissionSettled   = 1
	CommissionWithdrawn = 2
	CommissionRevoked   = 3
)

// Withdrawal statuses
const (
	WithdrawalPending  = 0
	WithdrawalApproved = 1
	WithdrawalRejected = 2
)

// Withdrawal payout channels
var WithdrawalMethods = []string{"alipay", "wechat", "bank"}

// ReferralCommission is credit owed to a referrer for a paid order
type ReferralCommission struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	ReferrerID       uint            `gorm:"not null;index" json:"referrer_id"`
	RefereeID        uint            `gorm:"not null;index" json:"referee_id"`
	OrderID          uint            `gorm:"not null;uniqueIndex" json:"order_id"`
	CommissionRate   decimal.Decimal `gorm:"type:decimal(5,4);not null" json:"commission_rate"`
	CommissionAmount decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"commission_amount"`
	Status           int             `gorm:"not null;index" json:"status"`
	SettledAt        *time.Time      `json:"settled_at"`
	CreatedAt        time.Time       `gorm:"index" json:"created_at"`

	Referee *User  `gorm:"foreignKey:RefereeID" json:"referee,omitempty"`
	Order   *Order `gorm:"foreignKey:OrderID" json:"order,omitempty"`
}

// CommissionWithdrawal is a payout request against commission balance
type CommissionWithdrawal struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	UserID         uint            `gorm:"not null;index" json:"user_id"`
	Amount         decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	PaymentMethod  string          `gorm:"size:16;not null" json:"payment_method"`
	PaymentAccount string          `gorm:"size:255;not null" json:"payment_account"`
	RealName       string          `gorm:"size:64;not null" json:"real_name"`
	Status         int             `gorm:"not null;index" json:"status"`
	AdminNote      string          `gorm:"size:255" json:"admin_note"`
	ProcessedAt    *time.Time      `json:"processed_at"`
	CreatedAt      time.Time       `json:"created_at"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// ValidWithdrawalMethod reports whether m is an accepted payout channel
func ValidWithdrawalMethod(m string) bool {
	for _, v := range WithdrawalMethods {
		if v == m {
			return true
		}
	}
	return false
}
