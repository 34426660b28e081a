package billing

import (
	"context" // Request scoped cancellation
	"errors"  // Error inspection
	"fmt"     // Error wrapping
	"regexp"  // Input validation
	"time"    // Time handling

	"xpanel/internal/domain" // Importing domain models
	"xpanel/internal/utils"  // Utility functions

	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// MaxCodesPerBatch bounds a single generate request
const MaxCodesPerBatch = 1000

var prefixPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{0,16}$`)

// GenerateInput describes a batch of redemption codes
type GenerateInput struct {
	PlanID       uint
	Quantity     int
	Prefix       string
	ExpiresAt    *time.Time
	DurationDays int // 0 keeps the plan duration
	Note         string
	CreatedBy    uint
}

// GenerateCodes creates Quantity unused codes for a plan in one transaction
func (s *Service) GenerateCodes(ctx context.Context, in GenerateInput) ([]domain.RedemptionCode, error) {
	if in.Quantity < 1 || in.Quantity > MaxCodesPerBatch {
		return nil, fmt.Errorf("%w: quantity must be between 1 and %d", domain.ErrInvalidInput, MaxCodesPerBatch)
	}
	if !prefixPattern.MatchString(in.Prefix) {
		return nil, fmt.Errorf("%w: prefix may hold up to 16 letters, digits, _ or -", domain.ErrInvalidInput)
	}
	if in.DurationDays < 0 {
		return nil, fmt.Errorf("%w: duration_days must not be negative", domain.ErrInvalidInput)
	}
	now := s.Now()
	if in.ExpiresAt != nil && !in.ExpiresAt.After(now) {
		return nil, fmt.Errorf("%w: expires_at must be in the future", domain.ErrInvalidInput)
	}

	db := s.DB.WithContext(ctx)
	var plan domain.Plan
	if err := db.First(&plan, in.PlanID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPlanNotFound
		}
		return nil, err
	}

	seen := make(map[string]struct{}, in.Quantity) // Codes already drawn in this batch
	codes := make([]domain.RedemptionCode, 0, in.Quantity)
	for len(codes) < in.Quantity {
		c, err := utils.NewRedemptionCode(in.Prefix)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[c]; dup {
			continue // Draw again on collision
		}
		seen[c] = struct{}{}
		rc := domain.RedemptionCode{
			Code:         c,
			PlanID:       plan.ID,
			DurationDays: in.DurationDays,
			Status:       domain.CodeUnused,
			ExpiresAt:    in.ExpiresAt,
			Note:         in.Note,
		}
		if in.CreatedBy != 0 {
			creator := in.CreatedBy
			rc.CreatedBy = &creator
		}
		codes = append(codes, rc)
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(&codes, 200).Error // Insert in chunks of 200
	})
	if err != nil {
		return nil, fmt.Errorf("insert codes: %w", err)
	}
	logrus.WithFields(logrus.Fields{
		"plan_id":    plan.ID,
		"quantity":   in.Quantity,
		"created_by": in.CreatedBy,
	}).Info("Redemption codes generated")
	return codes, nil
}

// DeleteCode removes an unused or expired code
func (s *Service) DeleteCode(ctx context.Context, id uint) error {
	db := s.DB.WithContext(ctx)
	var rc domain.RedemptionCode
	if err := db.First(&rc, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotFound
		}
		return err
	}
	if rc.Status == domain.CodeUsed {
		return domain.ErrCodeUsed
	}
	res := db.Where("id = ? AND status <> ?", id, domain.CodeUsed).Delete(&domain.RedemptionCode{}) // Skip codes used meanwhile
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrCodeUsed
	}
	return nil
}

// BatchDeleteCodes removes all ids, refusing when any of them was used
func (s *Service) BatchDeleteCodes(ctx context.Context, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, fmt.Errorf("%w: ids are required", domain.ErrInvalidInput)
	}
	var deleted int64
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var used int64
		if err := tx.Model(&domain.RedemptionCode{}).
			Where("id IN ? AND status = ?", ids, domain.CodeUsed).Count(&used).Error; err != nil {
			return err
		}
		if used > 0 {
			return fmt.Errorf("%w: %d of the selected codes", domain.ErrCodeUsed, used)
		}
		res := tx.Where("id IN ?", ids).Delete(&domain.RedemptionCode{})
		deleted = res.RowsAffected
		return res.Error
	})
	return deleted, err
}
