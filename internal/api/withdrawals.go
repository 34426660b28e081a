package api

import (
	"net/http" // HTTP status codes
	"strings"  // String manipulation

	"xpanel/internal/billing"    // Business operations
	"xpanel/internal/domain"     // Importing domain models
	"xpanel/internal/middleware" // Context helpers
	"xpanel/internal/utils"      // Utility functions

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/redis/go-redis/v9"  // Redis client
	"github.com/shopspring/decimal" // Exact money arithmetic
	"gorm.io/gorm"                  // GORM ORM library
)

// WithdrawalRequest asks for a payout of commission balance
type WithdrawalRequest struct {
	Amount         decimal.Decimal `json:"amount"`
	PaymentMethod  string          `json:"payment_method" binding:"required,oneof=alipay wechat bank"`
	PaymentAccount string          `json:"payment_account" binding:"required,max=255"`
	RealName       string          `json:"real_name" binding:"required,max=64"`
}

// RequestWithdrawalHandler freezes balance into a pending withdrawal
func RequestWithdrawalHandler(svc *billing.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req WithdrawalRequest
		if err := c.ShouldBindJSON(&req); err != nil { // Bind JSON request
			respondError(c, http.StatusBadRequest, "amount, payment_method (alipay, wechat, bank), payment_account and real_name are required")
			return
		}
		w, err := svc.RequestWithdrawal(c.Request.Context(), middleware.UserID(c), billing.WithdrawalInput{
			Amount:         req.Amount,
			PaymentMethod:  req.PaymentMethod,
			PaymentAccount: req.PaymentAccount,
			RealName:       req.RealName,
		})
		if err != nil {
			handleError(c, err, "Failed to request withdrawal")
			return
		}
		respondCreated(c, "Withdrawal requested", w)
	}
}

// MyWithdrawalsHandler pages through the current user's withdrawals
func MyWithdrawalsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := utils.ParsePage(c) // Page and limit from the query
		q := db.WithContext(c.Request.Context()).Model(&domain.CommissionWithdrawal{}).Where("user_id = ?", middleware.UserID(c))
		if st := c.Query("status"); st != "" {
			q = q.Where("status = ?", st)
		}
		var rows []domain.CommissionWithdrawal
		total, err := listPage(q, p, "created_at DESC, id DESC", &rows)
		if err != nil {
			handleError(c, err, "Failed to fetch withdrawals")
			return
		}
		respondPage(c, rows, total, p)
	}
}

// AdminWithdrawalsHandler lists withdrawals for review
func AdminWithdrawalsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := utils.ParsePage(c)
		q := db.WithContext(c.Request.Context()).Model(&domain.CommissionWithdrawal{}).
			Joins("LEFT JOIN users ON users.id = commission_withdrawals.user_id")
		if st := c.Query("status"); st != "" {
			q = q.Where("commission_withdrawals.status = ?", st)
		}
		if s := strings.TrimSpace(c.Query("search")); s != "" {
			q = q.Where("users.email LIKE ? OR commission_withdrawals.real_name LIKE ?", like(s), like(s))
		}
		var rows []domain.CommissionWithdrawal
		total, err := listPage(q, p, "commission_withdrawals.created_at DESC, commission_withdrawals.id DESC", &rows,
			columns("commission_withdrawals.*"), preload("User"))
		if err != nil {
			handleError(c, err, "Failed to fetch withdrawals")
			return
		}
		respondPage(c, rows, total, p)
	}
}

// ProcessWithdrawalRequest approves (1) or rejects (2) a withdrawal
type ProcessWithdrawalRequest struct {
	Status    int    `json:"status" binding:"required,oneof=1 2"`
	AdminNote string `json:"admin_note" binding:"max=255"`
}

// ProcessWithdrawalHandler settles a pending withdrawal
func ProcessWithdrawalHandler(svc *billing.Service, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		var req ProcessWithdrawalRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "status must be 1 (approve) or 2 (reject)")
			return
		}
		w, err := svc.ProcessWithdrawal(c.Request.Context(), id, req.Status, strings.TrimSpace(req.AdminNote))
		if err != nil {
			handleError(c, err, "Failed to process withdrawal")
			return
		}
		invalidateStats(c.Request.Context(), rdb)
		respondOK(c, "Withdrawal processed", w)
	}
}
