package billing

import (
	"context"
	"testing"
	"time"

	"xpanel/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// paidReferral returns a referrer with one settled 10.00 commission
func paidReferral(t *testing.T, svc *Service) *domain.User {
	t.Helper()
	ctx := context.Background()
	referrer := createUser(t, svc.DB, "boss@example.com", nil)
	buyer := createUser(t, svc.DB, "fan@example.com", &referrer.ID)
	plan := createPlan(t, svc.DB, "100", 30, 100)
	order, err := svc.CreateOrder(ctx, buyer.ID, plan.ID, "alipay")
	require.NoError(t, err)
	_, err = svc.CompleteOrder(ctx, order.ID, "", "")
	require.NoError(t, err)

	var rc domain.ReferralCommission
	require.NoError(t, svc.DB.First(&rc, "order_id = ?", order.ID).Error)
	_, err = svc.SettleCommission(ctx, rc.ID)
	require.NoError(t, err)
	return referrer
}

func TestSettleCommissionCreditsBalance(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	referrer := paidReferral(t, svc)

	u := reloadUser(t, svc.DB, referrer.ID)
	assert.True(t, u.CommissionBalance.Equal(decimal.NewFromInt(10)), u.CommissionBalance.String())

	var logs []domain.BalanceLog
	require.NoError(t, svc.DB.Where("user_id = ?", referrer.ID).Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, domain.LogCommissionSettle, logs[0].Type)

	var rc domain.ReferralCommission
	require.NoError(t, svc.DB.First(&rc).Error)
	_, err := svc.SettleCommission(ctx, rc.ID)
	assert.ErrorIs(t, err, domain.ErrCommissionNotPending)

	stats, err := svc.ReferralStats(ctx, referrer.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalReferrals)
	assert.True(t, stats.TotalCommission.Equal(decimal.NewFromInt(10)))
	assert.True(t, stats.MonthlyCommission.Equal(decimal.NewFromInt(10)))
	assert.True(t, stats.PendingCommission.IsZero())
}

func TestWithdrawalLifecycle(t *testing.T) {
	svc, rec := newTestService(t)
	ctx := context.Background()
	require.NoError(t, svc.SaveSettings(ctx, map[string]string{domain.SettingMinWithdrawal: "5"}))
	referrer := paidReferral(t, svc)

	in := WithdrawalInput{Amount: decimal.NewFromInt(4), PaymentMethod: "alipay", PaymentAccount: "acc", RealName: "Boss"}
	_, err := svc.RequestWithdrawal(ctx, referrer.ID, in)
	assert.ErrorIs(t, err, domain.ErrBelowMinimum)

	in.Amount = decimal.NewFromInt(50)
	_, err = svc.RequestWithdrawal(ctx, referrer.ID, in)
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)

	in.PaymentMethod = "paypal"
	_, err = svc.RequestWithdrawal(ctx, referrer.ID, in)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	in.PaymentMethod = "bank"
	in.Amount = decimal.NewFromInt(6)
	w, err := svc.RequestWithdrawal(ctx, referrer.ID, in)
	require.NoError(t, err)
	assert.Equal(t, domain.WithdrawalPending, w.Status)
	assert.True(t, reloadUser(t, svc.DB, referrer.ID).CommissionBalance.Equal(decimal.NewFromInt(4)))
	assert.NotEmpty(t, rec.msgs)

	rejected, err := svc.ProcessWithdrawal(ctx, w.ID, domain.WithdrawalRejected, "wrong account")
	require.NoError(t, err)
	assert.Equal(t, domain.WithdrawalRejected, rejected.Status)
	assert.True(t, reloadUser(t, svc.DB, referrer.ID).CommissionBalance.Equal(decimal.NewFromInt(10)))

	_, err = svc.ProcessWithdrawal(ctx, w.ID, domain.WithdrawalApproved, "")
	assert.ErrorIs(t, err, domain.ErrWithdrawalProcessed)

	w2, err := svc.RequestWithdrawal(ctx, referrer.ID, in)
	require.NoError(t, err)
	_, err = svc.ProcessWithdrawal(ctx, w2.ID, domain.WithdrawalApproved, "paid")
	require.NoError(t, err)
	assert.True(t, reloadUser(t, svc.DB, referrer.ID).CommissionBalance.Equal(decimal.NewFromInt(4)))

	_, err = svc.ProcessWithdrawal(ctx, w2.ID, 7, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	var logs []domain.BalanceLog
	require.NoError(t, svc.DB.Where("user_id = ?", referrer.ID).Order("id").Find(&logs).Error)
	types := make([]string, len(logs))
	for i, l := range logs {
		types[i] = l.Type
	}
	assert.Equal(t, []string{domain.LogCommissionSettle, domain.LogWithdraw, domain.LogWithdrawRefund, domain.LogWithdraw}, types)
}

func TestMonthlyCommissionExcludesEarlierMonths(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	referrer := paidReferral(t, svc)

	advance(svc, 40*24*time.Hour)
	stats, err := svc.ReferralStats(ctx, referrer.ID)
	require.NoError(t, err)
	assert.True(t, stats.TotalCommission.Equal(decimal.NewFromInt(10)))
	assert.True(t, stats.MonthlyCommission.IsZero())
}

func TestWithdrawalRoundsBeforeValidating(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	require.NoError(t, svc.SaveSettings(ctx, map[string]string{domain.SettingMinWithdrawal: "0"}))
	referrer := paidReferral(t, svc)

	in := WithdrawalInput{Amount: decimal.RequireFromString("0.001"), PaymentMethod: "alipay", PaymentAccount: "acc", RealName: "Boss"}
	_, err := svc.RequestWithdrawal(ctx, referrer.ID, in)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	var n int64
	require.NoError(t, svc.DB.Model(&domain.CommissionWithdrawal{}).Count(&n).Error)
	assert.Zero(t, n)
	assert.True(t, reloadUser(t, svc.DB, referrer.ID).CommissionBalance.Equal(decimal.NewFromInt(10)))

	// 4.996 rounds up to 5.00 and meets a minimum of 5
	require.NoError(t, svc.SaveSettings(ctx, map[string]string{domain.SettingMinWithdrawal: "5"}))
	in.Amount = decimal.RequireFromString("4.996")
	w, err := svc.RequestWithdrawal(ctx, referrer.ID, in)
	require.NoError(t, err)
	assert.True(t, w.Amount.Equal(decimal.NewFromInt(5)), w.Amount.String())
}

func TestApprovedWithdrawalMarksCommissionsWithdrawn(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	require.NoError(t, svc.SaveSettings(ctx, map[string]string{domain.SettingMinWithdrawal: "1"}))
	referrer := paidReferral(t, svc)

	in := WithdrawalInput{Amount: decimal.NewFromInt(6), PaymentMethod: "bank", PaymentAccount: "acc", RealName: "Boss"}
	w1, err := svc.RequestWithdrawal(ctx, referrer.ID, in)
	require.NoError(t, err)
	_, err = svc.ProcessWithdrawal(ctx, w1.ID, domain.WithdrawalApproved, "")
	require.NoError(t, err)

	// 6.00 paid does not cover the 10.00 commission yet
	var rc domain.ReferralCommission
	require.NoError(t, svc.DB.Where("referrer_id = ?", referrer.ID).First(&rc).Error)
	assert.Equal(t, domain.CommissionSettled, rc.Status)

	in.Amount = decimal.NewFromInt(4)
	w2, err := svc.RequestWithdrawal(ctx, referrer.ID, in)
	require.NoError(t, err)
	_, err = svc.ProcessWithdrawal(ctx, w2.ID, domain.WithdrawalApproved, "")
	require.NoError(t, err)

	require.NoError(t, svc.DB.First(&rc, rc.ID).Error)
	assert.Equal(t, domain.CommissionWithdrawn, rc.Status)

	stats, err := svc.ReferralStats(ctx, referrer.ID)
	require.NoError(t, err)
	assert.True(t, stats.TotalCommission.Equal(decimal.NewFromInt(10)), stats.TotalCommission.String())
	assert.True(t, stats.CommissionBalance.IsZero())
}
