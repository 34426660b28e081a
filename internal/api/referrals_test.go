package api

import (
	"fmt"
	"net/http"
	"testing"

	"xpanel/internal/billing"
	"xpanel/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaskEmail(t *testing.T) {
	assert.Equal(t, "a***@example.com", maskEmail("alice@example.com"))
	assert.Equal(t, "broken", maskEmail("broken"))
}

func TestWithdrawalFlow(t *testing.T) {
	e := newEnv(t)
	_, adminToken := e.seedUser(t, "root@example.com", domain.RoleAdmin)
	u, token := e.seedUser(t, "kate@example.com", domain.RoleUser)
	require.NoError(t, e.db.Model(u).Update("commission_balance", decimal.NewFromInt(300)).Error)

	w, _ := e.do(t, http.MethodPost, "/api/withdrawals", token, gin.H{
		"amount": "50", "payment_method": "alipay", "payment_account": "kate@pay", "real_name": "Kate",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code, "below the default minimum of 100")

	w, _ = e.do(t, http.MethodPost, "/api/withdrawals", token, gin.H{
		"amount": "150", "payment_method": "paypal", "payment_account": "kate@pay", "real_name": "Kate",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env := e.do(t, http.MethodPost, "/api/withdrawals", token, gin.H{
		"amount": "150", "payment_method": "alipay", "payment_account": "kate@pay", "real_name": "Kate",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var wd domain.CommissionWithdrawal
	decodeData(t, env, &wd)

	w, _ = e.do(t, http.MethodPost, "/api/withdrawals", token, gin.H{
		"amount": "200", "payment_method": "bank", "payment_account": "123", "real_name": "Kate",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code, "only 150 left")

	w, env = e.do(t, http.MethodGet, "/api/admin/withdrawals?status=0", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var pending []domain.CommissionWithdrawal
	decodeData(t, env, &pending)
	require.Len(t, pending, 1)
	require.NotNil(t, pending[0].User)
	assert.Equal(t, u.Email, pending[0].User.Email)

	w, _ = e.do(t, http.MethodPut, fmt.Sprintf("/api/admin/withdrawals/%d", wd.ID), adminToken, gin.H{"status": 3})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w, _ = e.do(t, http.MethodPut, fmt.Sprintf("/api/admin/withdrawals/%d", wd.ID), adminToken, gin.H{"status": 2, "admin_note": "wrong account"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w, _ = e.do(t, http.MethodPut, fmt.Sprintf("/api/admin/withdrawals/%d", wd.ID), adminToken, gin.H{"status": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var fresh domain.User
	require.NoError(t, e.db.First(&fresh, u.ID).Error)
	assert.True(t, fresh.CommissionBalance.Equal(decimal.NewFromInt(300)))

	w, env = e.do(t, http.MethodGet, "/api/referrals/balance-logs", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, env.Total)

	w, env = e.do(t, http.MethodGet, "/api/referrals/stats", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var st billing.ReferralStats
	decodeData(t, env, &st)
	assert.Equal(t, "KATE", st.ReferralCode)
}

func TestReferralSettings(t *testing.T) {
	e := newEnv(t)
	_, adminToken := e.seedUser(t, "root@example.com", domain.RoleAdmin)

	w, _ := e.do(t, http.MethodPut, "/api/admin/referrals/settings", adminToken, gin.H{"commission_rate": "1.5"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env := e.do(t, http.MethodPut, "/api/admin/referrals/settings", adminToken, gin.H{"commission_rate": "0.2"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var out struct {
		CommissionRate decimal.Decimal `json:"commission_rate"`
		MinWithdrawal  decimal.Decimal `json:"min_withdrawal"`
	}
	decodeData(t, env, &out)
	assert.True(t, out.CommissionRate.Equal(decimal.RequireFromString("0.2")))
	assert.True(t, out.MinWithdrawal.Equal(decimal.NewFromInt(100)), "untouched key keeps its default")
}
