package billing

import (
	"context" // Request scoped cancellation
	"errors"  // Error inspection
	"fmt"     // Error wrapping
	"strings" // String manipulation
	"time"    // Time handling

	"xpanel/internal/domain" // Importing domain models

	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// RedeemInput identifies the code and who receives it. UserID comes from a
// verified token and wins over Email.
type RedeemInput struct {
	Code   string
	UserID uint
	Email  string
}

// RedeemResult describes what the code granted
type RedeemResult struct {
	PlanName     string    `json:"plan_name"`
	DurationDays int       `json:"duration_days"`
	TrafficGB    int       `json:"traffic_gb"`
	DeviceLimit  int       `json:"device_limit"`
	EndDate      time.Time `json:"end_date"`
	Extended     bool      `json:"extended"`
}

// Redeem consumes a redemption code and credits the plan to a user.
// The code is claimed with a conditional update in the same transaction
// that creates or extends the subscription, so a failure leaves it unused.
func (s *Service) Redeem(ctx context.Context, in RedeemInput) (*RedeemResult, error) {
	code := strings.TrimSpace(in.Code)
	if code == "" {
		return nil, fmt.Errorf("%w: code is required", domain.ErrInvalidInput)
	}
	db := s.DB.WithContext(ctx)
	now := s.Now()

	var rc domain.RedemptionCode
	err := db.Preload("Plan").Where("code = ?", code).First(&rc).Error // Load code with its plan
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrCodeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load code: %w", err)
	}
	if rc.Plan == nil {
		return nil, domain.ErrCodeNotFound
	}
	switch rc.Status {
	case domain.CodeUnused: // Redeemable
	case domain.CodeExpired:
		return nil, domain.ErrCodeExpired
	default:
		return nil, domain.ErrCodeUsed
	}
	if rc.ExpiredAt(now) {
		if err := db.Model(&domain.RedemptionCode{}).
			Where("id = ? AND status = ?", rc.ID, domain.CodeUnused).
			Update("status", domain.CodeExpired).Error; err != nil { // Record the lapse
			logrus.WithError(err).WithField("code_id", rc.ID).Warn("Failed to mark code expired")
		}
		return nil, domain.ErrCodeExpired
	}

	user, err := s.resolveRedeemer(db, in)
	if err != nil {
		return nil, err
	}

	days := rc.Days(rc.Plan) // Code override or plan duration
	var (
		sub      *domain.UserSubscription
		extended bool
	)
	err = db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.RedemptionCode{}).
			Where("id = ? AND status = ?", rc.ID, domain.CodeUnused).
			Updates(map[string]any{"status": domain.CodeUsed, "used_by": user.ID, "used_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrCodeClaimed // Another redeemer won the code
		}
		var err error
		sub, extended, err = activatePlan(tx, user.ID, rc.Plan, days, now) // Create or extend the subscription
		return err
	})
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"code_id": rc.ID,
			"user_id": user.ID,
			"error":   err.Error(),
		}).Error("Redeem failed")
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"code_id":  rc.ID,
		"user_id":  user.ID,
		"plan_id":  rc.PlanID,
		"days":     days,
		"extended": extended,
	}).Info("Redemption code redeemed")

	return &RedeemResult{
		PlanName:     rc.Plan.Name,
		DurationDays: days,
		TrafficGB:    rc.Plan.TrafficGB,
		DeviceLimit:  rc.Plan.DeviceLimit,
		EndDate:      sub.EndDate,
		Extended:     extended,
	}, nil
}

func (s *Service) resolveRedeemer(db *gorm.DB, in RedeemInput) (*domain.User, error) {
	var (
		user domain.User
		err  error
	)
	switch {
	case in.UserID != 0: // Authenticated caller
		err = db.First(&user, in.UserID).Error
	case strings.TrimSpace(in.Email) != "": // Guest naming an account
		err = db.Where("email = ?", strings.ToLower(strings.TrimSpace(in.Email))).First(&user).Error
	default:
		return nil, domain.ErrRedeemTarget
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	if !user.IsActive() {
		return nil, domain.ErrUserDisabled
	}
	return &user, nil
}
