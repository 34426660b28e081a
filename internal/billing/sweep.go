package billing

import (
	"context" // Request scoped cancellation
	"fmt"     // Error wrapping

	"xpanel/internal/domain" // Importing domain models
)

// SweepResult counts rows changed by one Sweep
type SweepResult struct {
	CancelledOrders      int64
	ExpiredSubscriptions int64
	ExpiredCodes         int64
}

// Sweep cancels unpaid orders past their deadline and expires lapsed
// subscriptions and codes.
func (s *Service) Sweep(ctx context.Context) (SweepResult, error) {
	db := s.DB.WithContext(ctx)
	now := s.Now()
	var out SweepResult

	res := db.Model(&domain.Order{}).
		Where("status = ? AND expires_at < ?", domain.OrderPending, now).
		Update("status", domain.OrderCancelled) // Unpaid past the deadline
	if res.Error != nil {
		return out, fmt.Errorf("cancel stale orders: %w", res.Error)
	}
	out.CancelledOrders = res.RowsAffected

	res = db.Model(&domain.UserSubscription{}).
		Where("status = ? AND end_date <= ?", domain.SubscriptionActive, now).
		Update("status", domain.SubscriptionExpired) // Lapsed subscriptions
	if res.Error != nil {
		return out, fmt.Errorf("expire subscriptions: %w", res.Error)
	}
	out.ExpiredSubscriptions = res.RowsAffected

	res = db.Model(&domain.RedemptionCode{}).
		Where("status = ? AND expires_at IS NOT NULL AND expires_at < ?", domain.CodeUnused, now).
		Update("status", domain.CodeExpired) // Unused codes past expiry
	if res.Error != nil {
		return out, fmt.Errorf("expire codes: %w", res.Error)
	}
	out.ExpiredCodes = res.RowsAffected
	return out, nil
}
