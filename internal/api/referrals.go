package api

import (
	"net/http" // HTTP status codes
	"strings"  // String manipulation
	"time"     // Time handling

	"xpanel/internal/billing"    // Business operations
	"xpanel/internal/domain"     // Importing domain models
	"xpanel/internal/middleware" // Context helpers
	"xpanel/internal/utils"      // Utility functions

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/redis/go-redis/v9"  // Redis client
	"github.com/shopspring/decimal" // Exact money arithmetic
	"gorm.io/gorm"                  // GORM ORM library
)

// maskEmail keeps the first character and the domain
func maskEmail(email string) string {
	at := strings.IndexByte(email, '@')
	if at <= 0 {
		return email
	}
	return email[:1] + "***" + email[at:]
}

// ReferralStatsHandler returns the current user's referral totals
func ReferralStatsHandler(svc *billing.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		st, err := svc.ReferralStats(c.Request.Context(), middleware.UserID(c))
		if err != nil {
			handleError(c, err, "Failed to fetch referral stats")
			return
		}
		respondOK(c, "", st)
	}
}

type commissionRow struct {
	ID               uint            `json:"id"`
	OrderID          uint            `json:"order_id"`
	OrderNo          string          `json:"order_no"`
	ReferrerEmail    string          `json:"referrer_email,omitempty"`
	RefereeEmail     string          `json:"referee_email"`
	CommissionRate   decimal.Decimal `json:"commission_rate"`
	CommissionAmount decimal.Decimal `json:"commission_amount"`
	Status           int             `json:"status"`
	SettledAt        *time.Time      `json:"settled_at"`
	CreatedAt        time.Time       `json:"created_at"`
}

func commissionQuery(db *gorm.DB) *gorm.DB {
	return db.Table("referral_commissions AS rc").
		Joins("LEFT JOIN orders o ON o.id = rc.order_id").
		Joins("LEFT JOIN users referee ON referee.id = rc.referee_id").
		Joins("LEFT JOIN users referrer ON referrer.id = rc.referrer_id")
}

const commissionColumns = "rc.id, rc.order_id, o.order_no, referrer.email AS referrer_email, referee.email AS referee_email, " +
	"rc.commission_rate, rc.commission_amount, rc.status, rc.settled_at, rc.created_at"

// MyCommissionsHandler pages through commissions earned by the current user
func MyCommissionsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := utils.ParsePage(c) // Page and limit from the query
		q := commissionQuery(db.WithContext(c.Request.Context())).Where("rc.referrer_id = ?", middleware.UserID(c))
		if st := c.Query("status"); st != "" {
			q = q.Where("rc.status = ?", st)
		}
		var rows []commissionRow
		total, err := listPage(q, p, "rc.created_at DESC, rc.id DESC", &rows, columns(commissionColumns))
		if err != nil {
			handleError(c, err, "Failed to fetch commissions")
			return
		}
		for i := range rows {
			rows[i].ReferrerEmail = ""
			rows[i].RefereeEmail = maskEmail(rows[i].RefereeEmail)
		}
		respondPage(c, rows, total, p)
	}
}

type referredUser struct {
	ID        uint      `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// ReferredUsersHandler lists accounts that signed up with the user's code
func ReferredUsersHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := utils.ParsePage(c)
		q := db.WithContext(c.Request.Context()).Model(&domain.User{}).Where("referrer_id = ?", middleware.UserID(c))
		var rows []referredUser
		total, err := listPage(q, p, "created_at DESC, id DESC", &rows, columns("id, email, username, created_at"))
		if err != nil {
			handleError(c, err, "Failed to fetch referred users")
			return
		}
		for i := range rows {
			rows[i].Email = maskEmail(rows[i].Email)
		}
		respondPage(c, rows, total, p)
	}
}

// BalanceLogsHandler pages through the user's commission balance history
func BalanceLogsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := utils.ParsePage(c)
		q := db.WithContext(c.Request.Context()).Model(&domain.BalanceLog{}).Where("user_id = ?", middleware.UserID(c))
		var logs []domain.BalanceLog
		total, err := listPage(q, p, "id DESC", &logs)
		if err != nil {
			handleError(c, err, "Failed to fetch balance history")
			return
		}
		respondPage(c, logs, total, p)
	}
}

// AdminCommissionsHandler lists every commission with both parties
func AdminCommissionsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := utils.ParsePage(c)
		q := commissionQuery(db.WithContext(c.Request.Context()))
		if st := c.Query("status"); st != "" {
			q = q.Where("rc.status = ?", st)
		}
		if s := strings.TrimSpace(c.Query("search")); s != "" {
			q = q.Where("referrer.email LIKE ? OR referee.email LIKE ? OR o.order_no LIKE ?", like(s), like(s), like(s))
		}
		var rows []commissionRow
		total, err := listPage(q, p, "rc.created_at DESC, rc.id DESC", &rows, columns(commissionColumns))
		if err != nil {
			handleError(c, err, "Failed to fetch commissions")
			return
		}
		respondPage(c, rows, total, p)
	}
}

// SettleCommissionHandler credits a pending commission to its referrer
func SettleCommissionHandler(svc *billing.Service, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		rc, err := svc.SettleCommission(c.Request.Context(), id) // Credit the referrer
		if err != nil {
			handleError(c, err, "Failed to settle commission")
			return
		}
		invalidateStats(c.Request.Context(), rdb)
		respondOK(c, "Commission settled", rc)
	}
}

// ReferralSettingsRequest updates the commission program
type ReferralSettingsRequest struct {
	CommissionRate *decimal.Decimal `json:"commission_rate"`
	MinWithdrawal  *decimal.Decimal `json:"min_withdrawal"`
}

// GetReferralSettingsHandler returns commission rate and minimum payout
func GetReferralSettingsHandler(svc *billing.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		st, err := svc.Settings(c.Request.Context())
		if err != nil {
			handleError(c, err, "Failed to fetch settings")
			return
		}
		respondOK(c, "", gin.H{"commission_rate": st.CommissionRate, "min_withdrawal": st.MinWithdrawal})
	}
}

// UpdateReferralSettingsHandler stores commission rate and minimum payout
func UpdateReferralSettingsHandler(svc *billing.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ReferralSettingsRequest
		if err := c.ShouldBindJSON(&req); err != nil { // Bind JSON request
			respondError(c, http.StatusBadRequest, "commission_rate and min_withdrawal must be numbers")
			return
		}
		values := map[string]string{}
		if req.CommissionRate != nil {
			values[domain.SettingCommissionRate] = req.CommissionRate.String()
		}
		if req.MinWithdrawal != nil {
			values[domain.SettingMinWithdrawal] = req.MinWithdrawal.String()
		}
		if err := svc.SaveSettings(c.Request.Context(), values); err != nil {
			handleError(c, err, "Failed to save settings")
			return
		}
		st, err := svc.Settings(c.Request.Context())
		if err != nil {
			handleError(c, err, "Failed to fetch settings")
			return
		}
		respondOK(c, "Referral settings updated", gin.H{"commission_rate": st.CommissionRate, "min_withdrawal": st.MinWithdrawal})
	}
}
