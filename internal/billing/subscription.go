package billing

import (
	"context" // Request scoped cancellation
	"errors"  // Error inspection
	"fmt"     // Error wrapping
	"math"    // Rounding helpers
	"time"    // Time handling

	"xpanel/internal/domain" // Importing domain models

	"github.com/google/uuid" // Random identifiers
	"gorm.io/gorm"           // GORM ORM library
)

// activatePlan extends the user's running subscription by days or starts a
// new one. It must run inside the caller's transaction. extended reports
// which of the two happened.
func activatePlan(tx *gorm.DB, userID uint, plan *domain.Plan, days int, now time.Time) (sub *domain.UserSubscription, extended bool, err error) {
	var cur domain.UserSubscription
	err = tx.Where("user_id = ? AND status = ? AND end_date > ?", userID, domain.SubscriptionActive, now).
		Order("end_date DESC").First(&cur).Error

	switch {
	case err == nil:
		base := cur.EndDate // Extend from the current end date
		if base.Before(now) {
			base = now
		}
		end := base.AddDate(0, 0, days)
		if err := tx.Model(&cur).Updates(map[string]any{
			"end_date":      end,
			"traffic_total": gorm.Expr("traffic_total + ?", plan.TrafficBytes()), // Add the plan's traffic
		}).Error; err != nil {
			return nil, false, fmt.Errorf("extend subscription: %w", err)
		}
		if err := tx.First(&cur, cur.ID).Error; err != nil {
			return nil, false, err
		}
		return &cur, true, nil

	case errors.Is(err, gorm.ErrRecordNotFound):
		cur = domain.UserSubscription{
			UserID:       userID,
			PlanID:       plan.ID,
			Token:        uuid.NewString(), // Feed token
			Status:       domain.SubscriptionActive,
			StartDate:    now,
			EndDate:      now.AddDate(0, 0, days),
			TrafficTotal: plan.TrafficBytes(),
			DeviceLimit:  plan.DeviceLimit,
		}
		if err := tx.Create(&cur).Error; err != nil {
			return nil, false, fmt.Errorf("create subscription: %w", err)
		}
		return &cur, false, nil

	default:
		return nil, false, fmt.Errorf("find subscription: %w", err)
	}
}

// ActiveSubscription returns the user's current subscription with its plan
func (s *Service) ActiveSubscription(ctx context.Context, userID uint) (*domain.UserSubscription, error) {
	var sub domain.UserSubscription
	err := s.DB.WithContext(ctx).Preload("Plan").
		Where("user_id = ? AND status = ? AND end_date > ?", userID, domain.SubscriptionActive, s.Now()).
		Order("end_date DESC").First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNoSubscription
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// SubscriptionByToken resolves a feed token to an active subscription
func (s *Service) SubscriptionByToken(ctx context.Context, token string) (*domain.UserSubscription, error) {
	var sub domain.UserSubscription
	err := s.DB.WithContext(ctx).Where("token = ?", token).First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if !sub.ActiveAt(s.Now()) {
		return nil, domain.ErrNoSubscription
	}
	return &sub, nil
}

// SubscriptionView adds derived usage fields for the dashboard
type SubscriptionView struct {
	domain.UserSubscription
	PlanName        string  `json:"plan_name"`
	UsagePercentage int     `json:"usage_percentage"`
	IsExpired       bool    `json:"is_expired"`
	DaysRemaining   int     `json:"days_remaining"`
	TrafficUsedGB   float64 `json:"traffic_used_gb"`
	TrafficTotalGB  float64 `json:"traffic_total_gb"`
	SubscriptionURL string  `json:"subscription_url"`
}

// NewSubscriptionView computes the derived fields at now
func NewSubscriptionView(sub *domain.UserSubscription, now time.Time, baseURL string) SubscriptionView {
	v := SubscriptionView{
		UserSubscription: *sub,
		IsExpired:        !sub.EndDate.After(now),
		TrafficUsedGB:    toGB(sub.TrafficUsed),
		TrafficTotalGB:   toGB(sub.TrafficTotal),
		SubscriptionURL:  baseURL + "/api/subscription/" + sub.Token,
	}
	if sub.Plan != nil {
		v.PlanName = sub.Plan.Name
	}
	if sub.TrafficTotal > 0 {
		v.UsagePercentage = int(math.Round(float64(sub.TrafficUsed) / float64(sub.TrafficTotal) * 100)) // Whole percent
	}
	if !v.IsExpired {
		v.DaysRemaining = int(math.Ceil(sub.EndDate.Sub(now).Hours() / 24)) // Partial days count as one
	}
	return v
}

func toGB(b int64) float64 {
	return math.Round(float64(b)/float64(domain.GiB)*100) / 100
}
