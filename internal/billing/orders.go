package billing

import (
	"context" // Request scoped cancellation
	"errors"  // Error inspection
	"fmt"     // Error wrapping
	"slices"  // Slice helpers

	"xpanel/internal/domain" // Importing domain models
	"xpanel/internal/notify" // Admin notifications
	"xpanel/internal/utils"  // Utility functions

	"github.com/shopspring/decimal" // Exact money arithmetic
	"github.com/sirupsen/logrus"    // Logging library
	"gorm.io/gorm"                  // GORM ORM library
)

// CreateOrder opens a pending order for an active plan
func (s *Service) CreateOrder(ctx context.Context, userID, planID uint, method string) (*domain.Order, error) {
	db := s.DB.WithContext(ctx)
	settings, err := LoadSettings(db) // Payment methods come from settings
	if err != nil {
		return nil, err
	}
	if !slices.Contains(settings.PaymentMethods, method) {
		return nil, fmt.Errorf("%w: unsupported payment method", domain.ErrInvalidInput)
	}

	var plan domain.Plan
	if err := db.Where("id = ? AND is_active = ?", planID, true).First(&plan).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPlanNotFound
		}
		return nil, err
	}

	now := s.Now()
	orderNo, err := utils.NewOrderNo(now) // Human readable order number
	if err != nil {
		return nil, err
	}
	order := domain.Order{
		OrderNo:        orderNo,
		UserID:         userID,
		PlanID:         plan.ID,
		Amount:         plan.Price,
		DiscountAmount: decimal.Zero,
		FinalAmount:    plan.Price,
		Status:         domain.OrderPending,
		PaymentMethod:  method,
		ExpiresAt:      now.Add(s.OrderTTL), // Unpaid orders lapse after OrderTTL
		CreatedAt:      now,
	}
	if err := db.Create(&order).Error; err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	order.Plan = &plan
	logrus.WithFields(logrus.Fields{
		"order_no": order.OrderNo,
		"user_id":  userID,
		"plan_id":  plan.ID,
		"amount":   order.FinalAmount.String(),
	}).Info("Order created")
	return &order, nil
}

// CancelOrder cancels the user's own pending order
func (s *Service) CancelOrder(ctx context.Context, userID, orderID uint) error {
	db := s.DB.WithContext(ctx)
	var order domain.Order
	if err := db.Where("id = ? AND user_id = ?", orderID, userID).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrOrderNotFound
		}
		return err
	}
	res := db.Model(&domain.Order{}).
		Where("id = ? AND status = ?", order.ID, domain.OrderPending).
		Update("status", domain.OrderCancelled) // Only pending orders can be cancelled
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrOrderNotPending // Already paid, cancelled or refunded
	}
	return nil
}

// CompleteOrder marks a pending order paid, activates its plan and accrues
// a pending referral commission for the buyer's referrer.
func (s *Service) CompleteOrder(ctx context.Context, orderID uint, method, transactionID string) (*domain.Order, error) {
	now := s.Now()
	var (
		order domain.Order
		buyer domain.User
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Plan").First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrOrderNotFound
			}
			return err
		}
		if order.Plan == nil {
			return domain.ErrPlanNotFound
		}

		updates := map[string]any{"status": domain.OrderPaid, "paid_at": now} // Columns set on payment
		if method != "" {
			updates["payment_method"] = method
		}
		if transactionID != "" {
			updates["transaction_id"] = transactionID
		}
		res := tx.Model(&domain.Order{}).
			Where("id = ? AND status = ?", order.ID, domain.OrderPending).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrOrderNotPending
		}

		if _, _, err := activatePlan(tx, order.UserID, order.Plan, order.Plan.DurationDays, now); err != nil {
			return err
		}

		if err := tx.First(&buyer, order.UserID).Error; err != nil {
			return err
		}
		if buyer.ReferrerID == nil || !order.FinalAmount.IsPositive() { // No commission to accrue
			return nil
		}
		settings, err := LoadSettings(tx)
		if err != nil {
			return err
		}
		amount := order.FinalAmount.Mul(settings.CommissionRate).Round(2) // Commission in cents
		if !amount.IsPositive() {
			return nil
		}
		commission := domain.ReferralCommission{
			ReferrerID:       *buyer.ReferrerID,
			RefereeID:        buyer.ID,
			OrderID:          order.ID,
			CommissionRate:   settings.CommissionRate,
			CommissionAmount: amount,
			Status:           domain.CommissionPending,
			CreatedAt:        now,
		}
		return tx.Create(&commission).Error
	})
	if err != nil {
		return nil, err
	}

	order.Status = domain.OrderPaid
	order.PaidAt = &now
	logrus.WithFields(logrus.Fields{
		"order_no": order.OrderNo,
		"user_id":  order.UserID,
		"amount":   order.FinalAmount.String(),
	}).Info("Order paid")
	notify.Deliver(ctx, s.Notifier, notify.OrderPaid(order.OrderNo, buyer.Email, order.Plan.Name, order.FinalAmount))
	return &order, nil
}

// RefundOrder marks a paid order refunded and revokes its unsettled
// commission. Settled commissions and the granted subscription stay.
func (s *Service) RefundOrder(ctx context.Context, orderID uint) (*domain.Order, error) {
	var order domain.Order
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrOrderNotFound
			}
			return err
		}
		res := tx.Model(&domain.Order{}).
			Where("id = ? AND status = ?", order.ID, domain.OrderPaid).
			Update("status", domain.OrderRefunded)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrOrderNotPaid
		}
		return tx.Model(&domain.ReferralCommission{}).
			Where("order_id = ? AND status = ?", order.ID, domain.CommissionPending).
			Update("status", domain.CommissionRevoked).Error // Revoke the unsettled commission
	})
	if err != nil {
		return nil, err
	}
	order.Status = domain.OrderRefunded
	logrus.WithFields(logrus.Fields{
		"order_no": order.OrderNo,
		"amount":   order.FinalAmount.String(),
	}).Info("Order refunded")
	return &order, nil
}
