package billing

import (
	"context" // Request scoped cancellation
	"errors"  // Error inspection
	"fmt"     // Error wrapping
	"strings" // String manipulation
	"time"    // Time handling

	"xpanel/internal/domain" // Importing domain models
	"xpanel/internal/notify" // Admin notifications

	"github.com/shopspring/decimal" // Exact money arithmetic
	"github.com/sirupsen/logrus"    // Logging library
	"gorm.io/gorm"                  // GORM ORM library
)

// ReferralStats summarises a user's referral earnings
type ReferralStats struct {
	ReferralCode      string          `json:"referral_code"`
	TotalReferrals    int64           `json:"totalReferrals"`
	TotalCommission   decimal.Decimal `json:"totalCommission"`
	MonthlyCommission decimal.Decimal `json:"monthlyCommission"`
	PendingCommission decimal.Decimal `json:"pendingCommission"`
	CommissionBalance decimal.Decimal `json:"commissionBalance"`
}

// sumDecimal runs SUM(expr) over q, treating no rows as zero
func sumDecimal(q *gorm.DB, expr string) (decimal.Decimal, error) {
	var out struct{ Total decimal.Decimal }
	err := q.Select("COALESCE(SUM(" + expr + "), 0) AS total").Scan(&out).Error
	return out.Total, err
}

// ReferralStats computes totals for the user's referral dashboard.
// Earned commission counts settled and withdrawn entries.
func (s *Service) ReferralStats(ctx context.Context, userID uint) (*ReferralStats, error) {
	db := s.DB.WithContext(ctx)
	var user domain.User
	if err := db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	st := &ReferralStats{ReferralCode: user.ReferralCode, CommissionBalance: user.CommissionBalance}
	if err := db.Model(&domain.User{}).Where("referrer_id = ?", userID).Count(&st.TotalReferrals).Error; err != nil {
		return nil, err
	}

	earned := []int{domain.CommissionSettled, domain.CommissionWithdrawn} // Statuses counted as earned
	commissions := func() *gorm.DB {
		return db.Model(&domain.ReferralCommission{}).Where("referrer_id = ?", userID)
	}
	var err error
	if st.TotalCommission, err = sumDecimal(commissions().Where("status IN ?", earned), "commission_amount"); err != nil {
		return nil, err
	}
	now := s.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC) // First day of the current month
	if st.MonthlyCommission, err = sumDecimal(commissions().Where("status IN ? AND created_at >= ?", earned, monthStart), "commission_amount"); err != nil {
		return nil, err
	}
	if st.PendingCommission, err = sumDecimal(commissions().Where("status = ?", domain.CommissionPending), "commission_amount"); err != nil {
		return nil, err
	}
	return st, nil
}

// SettleCommission moves a pending commission into the referrer's
// withdrawable balance.
func (s *Service) SettleCommission(ctx context.Context, id uint) (*domain.ReferralCommission, error) {
	now := s.Now()
	var rc domain.ReferralCommission
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&rc, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}
		res := tx.Model(&domain.ReferralCommission{}).
			Where("id = ? AND status = ?", rc.ID, domain.CommissionPending).
			Updates(map[string]any{"status": domain.CommissionSettled, "settled_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrCommissionNotPending
		}
		if err := tx.Model(&domain.User{}).Where("id = ?", rc.ReferrerID).
			Update("commission_balance", gorm.Expr("commission_balance + ?", rc.CommissionAmount)).Error; err != nil {
			return err
		}
		return tx.Create(&domain.BalanceLog{
			UserID: rc.ReferrerID,
			Amount: rc.CommissionAmount,
			Type:   domain.LogCommissionSettle,
			RefID:  rc.ID,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	rc.Status = domain.CommissionSettled
	rc.SettledAt = &now
	logrus.WithFields(logrus.Fields{
		"commission_id": rc.ID,
		"referrer_id":   rc.ReferrerID,
		"amount":        rc.CommissionAmount.String(),
	}).Info("Commission settled")
	return &rc, nil
}

// WithdrawalInput is a payout request
type WithdrawalInput struct {
	Amount         decimal.Decimal
	PaymentMethod  string
	PaymentAccount string
	RealName       string
}

// RequestWithdrawal freezes amount from the commission balance and records
// a pending withdrawal.
func (s *Service) RequestWithdrawal(ctx context.Context, userID uint, in WithdrawalInput) (*domain.CommissionWithdrawal, error) {
	amount := in.Amount.Round(2) // Payouts are in cents
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be at least 0.01", domain.ErrInvalidInput)
	}
	if !domain.ValidWithdrawalMethod(in.PaymentMethod) {
		return nil, fmt.Errorf("%w: payment_method must be one of %s", domain.ErrInvalidInput, strings.Join(domain.WithdrawalMethods, ", "))
	}
	in.PaymentAccount = strings.TrimSpace(in.PaymentAccount)
	in.RealName = strings.TrimSpace(in.RealName)
	if in.PaymentAccount == "" || in.RealName == "" {
		return nil, fmt.Errorf("%w: payment_account and real_name are required", domain.ErrInvalidInput)
	}

	db := s.DB.WithContext(ctx)
	settings, err := LoadSettings(db)
	if err != nil {
		return nil, err
	}
	if amount.LessThan(settings.MinWithdrawal) {
		return nil, fmt.Errorf("%w (%s)", domain.ErrBelowMinimum, settings.MinWithdrawal.String())
	}

	w := domain.CommissionWithdrawal{
		UserID:         userID,
		Amount:         amount,
		PaymentMethod:  in.PaymentMethod,
		PaymentAccount: in.PaymentAccount,
		RealName:       in.RealName,
		Status:         domain.WithdrawalPending,
		CreatedAt:      s.Now(),
	}
	var user domain.User
	err = db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.User{}).
			Where("id = ? AND commission_balance >= ?", userID, amount).              // Only when the balance covers it
			Update("commission_balance", gorm.Expr("commission_balance - ?", amount)) // Freeze the amount
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrInsufficientBalance
		}
		if err := tx.Create(&w).Error; err != nil {
			return err
		}
		if err := tx.First(&user, userID).Error; err != nil {
			return err
		}
		return tx.Create(&domain.BalanceLog{
			UserID: userID,
			Amount: amount.Neg(),
			Type:   domain.LogWithdraw,
			RefID:  w.ID,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"withdrawal_id": w.ID,
		"user_id":       userID,
		"amount":        amount.String(),
		"method":        w.PaymentMethod,
	}).Info("Withdrawal requested")
	notify.Deliver(ctx, s.Notifier, notify.WithdrawalRequested(w.ID, user.Email, w.PaymentMethod, amount))
	return &w, nil
}

// ProcessWithdrawal approves or rejects a pending withdrawal. Rejecting
// returns the frozen amount to the user's commission balance.
func (s *Service) ProcessWithdrawal(ctx context.Context, id uint, status int, note string) (*domain.CommissionWithdrawal, error) {
	if status != domain.WithdrawalApproved && status != domain.WithdrawalRejected {
		return nil, fmt.Errorf("%w: status must be 1 (approve) or 2 (reject)", domain.ErrInvalidInput)
	}
	now := s.Now()
	var w domain.CommissionWithdrawal
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&w, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrWithdrawalNotFound
			}
			return err
		}
		res := tx.Model(&domain.CommissionWithdrawal{}).
			Where("id = ? AND status = ?", w.ID, domain.WithdrawalPending).
			Updates(map[string]any{"status": status, "admin_note": note, "processed_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrWithdrawalProcessed
		}
		if status == domain.WithdrawalApproved {
			return markCommissionsWithdrawn(tx, w.UserID) // Approved payouts consume settled commissions
		}
		if err := tx.Model(&domain.User{}).Where("id = ?", w.UserID).
			Update("commission_balance", gorm.Expr("commission_balance + ?", w.Amount)).Error; err != nil { // Refund the frozen amount
			return err
		}
		return tx.Create(&domain.BalanceLog{
			UserID: w.UserID,
			Amount: w.Amount,
			Type:   domain.LogWithdrawRefund,
			RefID:  w.ID,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	w.Status = status
	w.AdminNote = note
	w.ProcessedAt = &now
	logrus.WithFields(logrus.Fields{
		"withdrawal_id": w.ID,
		"user_id":       w.UserID,
		"amount":        w.Amount.String(),
		"status":        status,
	}).Info("Withdrawal processed")
	return &w, nil
}

// markCommissionsWithdrawn flags settled commissions as withdrawn, oldest
// first, while their total stays within what approved payouts have covered.
// A commission only partly covered stays settled.
func markCommissionsWithdrawn(tx *gorm.DB, userID uint) error {
	paid, err := sumDecimal(tx.Model(&domain.CommissionWithdrawal{}).
		Where("user_id = ? AND status = ?", userID, domain.WithdrawalApproved), "amount")
	if err != nil {
		return err
	}
	covered, err := sumDecimal(tx.Model(&domain.ReferralCommission{}).
		Where("referrer_id = ? AND status = ?", userID, domain.CommissionWithdrawn), "commission_amount")
	if err != nil {
		return err
	}
	budget := paid.Sub(covered) // Paid out but not yet matched to commissions

	var settled []domain.ReferralCommission
	if err := tx.Where("referrer_id = ? AND status = ?", userID, domain.CommissionSettled).
		Order("settled_at, id").Find(&settled).Error; err != nil {
		return err
	}
	var ids []uint
	for _, rc := range settled {
		if rc.CommissionAmount.GreaterThan(budget) {
			break
		}
		budget = budget.Sub(rc.CommissionAmount)
		ids = append(ids, rc.ID)
	}
	if len(ids) == 0 {
		return nil
	}
	return tx.Model(&domain.ReferralCommission{}).
		Where("id IN ? AND status = ?", ids, domain.CommissionSettled).
		Update("status", domain.CommissionWithdrawn).Error
}
