package notify

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// OrderPaid formats the alert sent when an order is completed
func OrderPaid(orderNo, email, plan string, amount decimal.Decimal) string {
	return fmt.Sprintf("✅ Order %s paid\nUser: %s\nPlan: %s\nAmount: %s", orderNo, email, plan, amount.StringFixed(2))
}

// WithdrawalRequested formats the alert for a new payout request
func WithdrawalRequested(id uint, email, method string, amount decimal.Decimal) string {
	return fmt.Sprintf("💸 Withdrawal #%d requested\nUser: %s\nMethod: %s\nAmount: %s", id, email, method, amount.StringFixed(2))
}
