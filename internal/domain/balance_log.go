package domain

import "github.com/shopspring/decimal"

// Balance log types
const (
	LogCommissionSettle = "commission_settle"
	LogWithdraw         = "withdraw"
	LogWithdrawRefund   = "withdraw_refund"
)

// BalanceLog records every movement of a user's commission balance
type BalanceLog struct {
	ID        uint            `gorm:"primaryKey" json:"id"`                      // Primary key
	UserID    uint            `gorm:"not null;index" json:"user_id"`             // Owner of the balance
	Amount    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"` // Signed amount, negative for debits
	Type      string          `gorm:"size:32;not null" json:"type"`              // commission_settle, withdraw, withdraw_refund
	RefID     uint            `json:"ref_id"`                                    // Commission or withdrawal id
	CreatedAt int64           `gorm:"autoCreateTime:milli" json:"created_at"`    // Timestamp of creation in milliseconds
}
