// Package billing holds the money and entitlement flows: redemption,
// order completion, referral commissions and withdrawals.
package billing

import (
	"time" // Time handling

	"xpanel/internal/notify" // Admin notifications

	"gorm.io/gorm" // GORM ORM library
)

// Service runs billing operations against the database
type Service struct {
	DB       *gorm.DB
	Notifier notify.Notifier
	OrderTTL time.Duration    // Lifetime of an unpaid order
	Now      func() time.Time // Clock, replaced in tests
}

// NewService returns a Service using the UTC wall clock
func NewService(db *gorm.DB, n notify.Notifier, orderTTL time.Duration) *Service {
	if n == nil {
		n = notify.Nop{}
	}
	return &Service{
		DB:       db,
		Notifier: n,
		OrderTTL: orderTTL,
		Now:      func() time.Time { return time.Now().UTC() },
	}
}
