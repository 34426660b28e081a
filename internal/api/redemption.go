package api

import (
	"net/http" // HTTP status codes
	"strings"  // String manipulation
	"time"     // Time handling

	"xpanel/internal/billing"    // Business operations
	"xpanel/internal/middleware" // Context helpers
	"xpanel/internal/utils"      // Utility functions

	"github.com/gin-gonic/gin" // Gin web framework
	"gorm.io/gorm"             // GORM ORM library
)

// RedeemRequest carries the code and, for guests, the account email
type RedeemRequest struct {
	Code  string `json:"code" binding:"required,max=64"`
	Email string `json:"email" binding:"omitempty,email"`
}

// RedeemHandler exchanges a code for a subscription. A valid bearer token
// selects the account; otherwise the email does.
func RedeemHandler(svc *billing.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RedeemRequest
		if err := c.ShouldBindJSON(&req); err != nil { // Bind JSON request
			respondError(c, http.StatusBadRequest, "A redemption code is required")
			return
		}
		res, err := svc.Redeem(c.Request.Context(), billing.RedeemInput{
			Code:   req.Code,
			UserID: middleware.UserID(c), // 0 for guests
			Email:  req.Email,
		})
		if err != nil {
			handleError(c, err, "Redemption failed")
			return
		}
		respondOK(c, "Redemption successful", res)
	}
}

// GenerateCodesRequest is the admin batch generation payload
type GenerateCodesRequest struct {
	PlanID       uint       `json:"plan_id" binding:"required"`
	Quantity     int        `json:"quantity" binding:"required,min=1,max=1000"`
	Prefix       string     `json:"prefix" binding:"max=16"`
	ExpiresAt    *time.Time `json:"expires_at"`
	DurationDays int        `json:"duration_days" binding:"gte=0"`
	Note         string     `json:"note" binding:"max=255"`
}

// GenerateCodesHandler creates a batch of codes for a plan
func GenerateCodesHandler(svc *billing.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req GenerateCodesRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "plan_id and a quantity between 1 and 1000 are required")
			return
		}
		codes, err := svc.GenerateCodes(c.Request.Context(), billing.GenerateInput{
			PlanID:       req.PlanID,
			Quantity:     req.Quantity,
			Prefix:       strings.TrimSpace(req.Prefix),
			ExpiresAt:    req.ExpiresAt,
			DurationDays: req.DurationDays,
			Note:         req.Note,
			CreatedBy:    middleware.UserID(c),
		})
		if err != nil {
			handleError(c, err, "Failed to generate codes")
			return
		}
		list := make([]string, len(codes))
		for i := range codes {
			list[i] = codes[i].Code
		}
		respondCreated(c, "Codes generated", gin.H{"codes": list, "count": len(list)})
	}
}

type codeRow struct {
	ID             uint       `json:"id"`
	Code           string     `json:"code"`
	PlanID         uint       `json:"plan_id"`
	PlanName       string     `json:"plan_name"`
	DurationDays   int        `json:"duration_days"`
	Status         int        `json:"status"`
	UsedBy         *uint      `json:"used_by"`
	UsedByEmail    *string    `json:"used_by_email"`
	UsedAt         *time.Time `json:"used_at"`
	ExpiresAt      *time.Time `json:"expires_at"`
	Note           string     `json:"note"`
	CreatedByEmail *string    `json:"created_by_email"`
	CreatedAt      time.Time  `json:"created_at"`
}

// ListCodesHandler pages through codes with plan and user emails
func ListCodesHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := utils.ParsePage(c) // Page and limit from the query
		q := db.WithContext(c.Request.Context()).Table("redemption_codes AS rc").
			Joins("LEFT JOIN plans p ON p.id = rc.plan_id").
			Joins("LEFT JOIN users u ON u.id = rc.used_by").
			Joins("LEFT JOIN users cu ON cu.id = rc.created_by")
		if s := strings.TrimSpace(c.Query("search")); s != "" {
			q = q.Where("rc.code LIKE ?", like(s))
		}
		if st := c.Query("status"); st != "" {
			q = q.Where("rc.status = ?", st)
		}
		if planID := c.Query("plan_id"); planID != "" {
			q = q.Where("rc.plan_id = ?", planID)
		}
		var rows []codeRow
		total, err := listPage(q, p, "rc.created_at DESC, rc.id DESC", &rows,
			columns("rc.*, p.name AS plan_name, u.email AS used_by_email, cu.email AS created_by_email"))
		if err != nil {
			handleError(c, err, "Failed to fetch codes")
			return
		}
		respondPage(c, rows, total, p)
	}
}

// DeleteCodeHandler removes one unused code
func DeleteCodeHandler(svc *billing.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		if err := svc.DeleteCode(c.Request.Context(), id); err != nil {
			handleError(c, err, "Failed to delete code")
			return
		}
		respondOK(c, "Code deleted", nil)
	}
}

// BatchDeleteRequest lists code ids to remove
type BatchDeleteRequest struct {
	IDs []uint `json:"ids" binding:"required,min=1,max=1000"`
}

// BatchDeleteCodesHandler removes several unused codes at once
func BatchDeleteCodesHandler(svc *billing.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req BatchDeleteRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "ids are required")
			return
		}
		n, err := svc.BatchDeleteCodes(c.Request.Context(), req.IDs)
		if err != nil {
			handleError(c, err, "Failed to delete codes")
			return
		}
		respondOK(c, "Codes deleted", gin.H{"deleted": n})
	}
}
