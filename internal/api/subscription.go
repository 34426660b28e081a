package api

import (
	"errors"   // Error inspection
	"fmt"      // Error wrapping
	"net/http" // HTTP status codes

	"xpanel/internal/billing"    // Business operations
	"xpanel/internal/domain"     // Importing domain models
	"xpanel/internal/middleware" // Context helpers
	"xpanel/internal/proxyconf"  // Proxy config rendering

	"github.com/gin-gonic/gin" // Gin web framework
	"gorm.io/gorm"             // GORM ORM library
)

// serverView hides node credentials from end users
type serverView struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Host        string `json:"host"`
	Port        int    `json:"port"`
	Protocol    string `json:"protocol"`
	Country     string `json:"country"`
	City        string `json:"city"`
	FlagEmoji   string `json:"flag_emoji"`
	LoadBalance int    `json:"load_balance"`
	TLS         bool   `json:"tls"`
}

func activeServers(db *gorm.DB) ([]domain.Server, error) {
	var servers []domain.Server
	err := db.Where("status = ?", domain.ServerActive).
		Order("sort_order ASC").Order("id ASC").Find(&servers).Error
	return servers, err
}

// MySubscriptionHandler returns the current subscription or null
func MySubscriptionHandler(svc *billing.Service, baseURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		sub, err := svc.ActiveSubscription(c.Request.Context(), middleware.UserID(c))
		if errors.Is(err, domain.ErrNoSubscription) {
			respondOK(c, "No active subscription", nil)
			return
		}
		if err != nil {
			handleError(c, err, "Failed to fetch subscription")
			return
		}
		respondOK(c, "", billing.NewSubscriptionView(sub, svc.Now(), baseURL))
	}
}

// MyServersHandler lists nodes for subscribers
func MyServersHandler(svc *billing.Service, baseURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		sub, err := svc.ActiveSubscription(ctx, middleware.UserID(c))
		if err != nil {
			handleError(c, err, "Failed to fetch servers")
			return
		}
		servers, err := activeServers(svc.DB.WithContext(ctx))
		if err != nil {
			handleError(c, err, "Failed to fetch servers")
			return
		}
		views := make([]serverView, len(servers))
		for i, s := range servers {
			views[i] = serverView{
				ID: s.ID, Name: s.Name, Host: s.Host, Port: s.Port, Protocol: s.Protocol,
				Country: s.Country, City: s.City, FlagEmoji: s.FlagEmoji, LoadBalance: s.LoadBalance, TLS: s.TLS,
			}
		}
		respondOK(c, "", gin.H{
			"servers":      views,
			"subscription": billing.NewSubscriptionView(sub, svc.Now(), baseURL),
		})
	}
}

// ServerConfigHandler returns the share link for one node
func ServerConfigHandler(svc *billing.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		ctx := c.Request.Context()
		sub, err := svc.ActiveSubscription(ctx, middleware.UserID(c))
		if err != nil {
			handleError(c, err, "Failed to build config")
			return
		}
		var srv domain.Server
		if err := svc.DB.WithContext(ctx).Where("id = ? AND status = ?", id, domain.ServerActive).First(&srv).Error; err != nil {
			handleError(c, domain.ErrServerMissing, "")
			return
		}
		link, err := proxyconf.Link(&srv, sub.Token)
		if err != nil {
			handleError(c, err, "Failed to build config")
			return
		}
		respondOK(c, "", gin.H{"server_id": srv.ID, "name": srv.Name, "protocol": srv.Protocol, "config": link})
	}
}

// SubscriptionFeedHandler serves the base64 link list proxy clients import
func SubscriptionFeedHandler(svc *billing.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		sub, err := svc.SubscriptionByToken(ctx, c.Param("token"))
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrNoSubscription) {
				c.String(http.StatusNotFound, "subscription not found or expired")
				return
			}
			handleError(c, err, "Failed to build subscription")
			return
		}
		servers, err := activeServers(svc.DB.WithContext(ctx))
		if err != nil {
			handleError(c, err, "Failed to build subscription")
			return
		}
		c.Header("Subscription-Userinfo", fmt.Sprintf("upload=0; download=%d; total=%d; expire=%d", // Usage header read by proxy clients
			sub.TrafficUsed, sub.TrafficTotal, sub.EndDate.Unix()))
		c.Header("Profile-Update-Interval", "12")                   // Refresh every 12 hours
		c.String(http.StatusOK, proxyconf.Feed(servers, sub.Token)) // Base64 share links
	}
}
