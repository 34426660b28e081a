package api

import (
	"errors"   // Error inspection
	"net/http" // HTTP status codes
	"strconv"  // String conversion

	"xpanel/internal/domain"     // Importing domain models
	"xpanel/internal/middleware" // Context helpers
	"xpanel/internal/proxyconf"  // Proxy config rendering
	"xpanel/internal/utils"      // Utility functions

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// errorStatus maps domain errors to HTTP status codes
var errorStatus = map[error]int{
	domain.ErrInvalidInput:           http.StatusBadRequest,
	domain.ErrUnauthorized:           http.StatusUnauthorized,
	domain.ErrForbidden:              http.StatusForbidden,
	domain.ErrNotFound:               http.StatusNotFound,
	domain.ErrUserNotFound:           http.StatusBadRequest,
	domain.ErrUserDisabled:           http.StatusForbidden,
	domain.ErrEmailTaken:             http.StatusBadRequest,
	domain.ErrBadReferral:            http.StatusBadRequest,
	domain.ErrBadPassword:            http.StatusBadRequest,
	domain.ErrPlanNotFound:           http.StatusNotFound,
	domain.ErrPlanInUse:              http.StatusBadRequest,
	domain.ErrServerMissing:          http.StatusNotFound,
	domain.ErrCodeNotFound:           http.StatusBadRequest,
	domain.ErrCodeUsed:               http.StatusBadRequest,
	domain.ErrCodeExpired:            http.StatusBadRequest,
	domain.ErrCodeClaimed:            http.StatusConflict,
	domain.ErrRedeemTarget:           http.StatusBadRequest,
	domain.ErrOrderNotFound:          http.StatusNotFound,
	domain.ErrOrderNotPending:        http.StatusBadRequest,
	domain.ErrOrderNotPaid:           http.StatusBadRequest,
	domain.ErrNoSubscription:         http.StatusForbidden,
	domain.ErrCommissionNotPending:   http.StatusBadRequest,
	domain.ErrWithdrawalNotFound:     http.StatusNotFound,
	domain.ErrWithdrawalProcessed:    http.StatusBadRequest,
	domain.ErrBelowMinimum:           http.StatusBadRequest,
	domain.ErrInsufficientBalance:    http.StatusBadRequest,
	proxyconf.ErrUnsupportedProtocol: http.StatusBadRequest,
}

func statusFor(err error) int {
	if errors.Is(err, gorm.ErrRecordNotFound) { // Unmapped lookups are 404
		return http.StatusNotFound
	}
	for target, status := range errorStatus {
		if errors.Is(err, target) {
			return status
		}
	}
	return http.StatusInternalServerError // Anything unknown is internal
}

func respondOK(c *gin.Context, msg string, data any) {
	c.JSON(http.StatusOK, gin.H{"success": true, "message": msg, "data": data})
}

func respondCreated(c *gin.Context, msg string, data any) {
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": msg, "data": data})
}

func respondError(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"success": false, "message": msg})
}

func respondPage(c *gin.Context, data any, total int64, p utils.Page) {
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"message":     "",
		"data":        data,
		"total":       total,
		"page":        p.Page,
		"limit":       p.Limit,
		"total_pages": (int(total) + p.Limit - 1) / p.Limit, // Round up
	})
}

// handleError writes the mapped status. Unexpected errors are logged and
// replaced by fallback so internals never reach the client.
func handleError(c *gin.Context, err error, fallback string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logrus.WithFields(logrus.Fields{
			"path":       c.FullPath(),
			"request_id": c.GetString(middleware.CtxRequestID),
			"error":      err.Error(),
		}).Error(fallback)
		respondError(c, status, fallback)
		return
	}
	respondError(c, status, err.Error()) // Domain errors are safe to show
}

func badRequest(c *gin.Context) {
	respondError(c, http.StatusBadRequest, "Invalid request")
}

// idParam parses a positive numeric path parameter
func idParam(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		respondError(c, http.StatusBadRequest, "Invalid "+name)
		return 0, false
	}
	return uint(v), true
}

// listPage counts q and loads one page of it into dest. Scopes apply only
// to the row query, so selects and preloads never reach the count.
func listPage(q *gorm.DB, p utils.Page, order string, dest any, scopes ...func(*gorm.DB) *gorm.DB) (int64, error) {
	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil { // Count before paging
		return 0, err
	}
	err := q.Session(&gorm.Session{}).Scopes(scopes...).
		Order(order).Offset(p.Offset()).Limit(p.Limit).Find(dest).Error
	return total, err
}

func columns(sel string) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB { return tx.Select(sel) }
}

func preload(assocs ...string) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		for _, a := range assocs {
			tx = tx.Preload(a)
		}
		return tx
	}
}

func like(s string) string { return "%" + s + "%" }
