package api

import (
	"net/http" // HTTP status codes
	"strings"  // String manipulation

	"xpanel/internal/domain" // Importing domain models
	"xpanel/internal/utils"  // Utility functions

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// ServerRequest is the admin create/update payload for a node
type ServerRequest struct {
	Name        string `json:"name" binding:"required,max=128"`
	Host        string `json:"host" binding:"required,max=255"`
	Port        int    `json:"port" binding:"required,min=1,max=65535"`
	Protocol    string `json:"protocol" binding:"required,oneof=vmess vless trojan shadowsocks"`
	Method      string `json:"method"`
	Password    string `json:"password"`
	UUID        string `json:"uuid"`
	Path        string `json:"path"`
	TLS         bool   `json:"tls"`
	Country     string `json:"country"`
	City        string `json:"city"`
	FlagEmoji   string `json:"flag_emoji"`
	LoadBalance int    `json:"load_balance" binding:"gte=0"`
	MaxUsers    int    `json:"max_users" binding:"gte=0"`
	DeviceLimit int    `json:"device_limit" binding:"gte=0"`
	Status      *int   `json:"status" binding:"omitempty,oneof=0 1 2"`
	SortOrder   int    `json:"sort_order"`
}

func (r *ServerRequest) apply(s *domain.Server) {
	s.Name = strings.TrimSpace(r.Name)
	s.Host = strings.TrimSpace(r.Host)
	s.Port = r.Port
	s.Protocol = r.Protocol
	s.Method = r.Method
	s.Password = r.Password
	s.UUID = r.UUID
	s.Path = r.Path
	s.TLS = r.TLS
	s.Country = r.Country
	s.City = r.City
	s.FlagEmoji = r.FlagEmoji
	s.LoadBalance = r.LoadBalance
	s.MaxUsers = r.MaxUsers
	s.DeviceLimit = r.DeviceLimit
	if s.DeviceLimit == 0 {
		s.DeviceLimit = domain.DefaultDeviceLimit
	}
	s.Status = domain.ServerActive
	if r.Status != nil {
		s.Status = *r.Status
	}
	s.SortOrder = r.SortOrder
}

const serverValidationMsg = "name, host, port (1-65535) and protocol (vmess, vless, trojan, shadowsocks) are required"

// AdminListServersHandler lists nodes with search and status filters
func AdminListServersHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := utils.ParsePage(c) // Page and limit from the query
		q := db.WithContext(c.Request.Context()).Model(&domain.Server{})
		if s := strings.TrimSpace(c.Query("search")); s != "" {
			q = q.Where("name LIKE ? OR host LIKE ? OR country LIKE ?", like(s), like(s), like(s))
		}
		if st := c.Query("status"); st != "" {
			q = q.Where("status = ?", st)
		}
		var servers []domain.Server
		total, err := listPage(q, p, "sort_order ASC, id ASC", &servers)
		if err != nil {
			handleError(c, err, "Failed to fetch servers")
			return
		}
		respondPage(c, servers, total, p)
	}
}

// CreateServerHandler adds a node
func CreateServerHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ServerRequest
		if err := c.ShouldBindJSON(&req); err != nil { // Bind JSON request
			respondError(c, http.StatusBadRequest, serverValidationMsg)
			return
		}
		var srv domain.Server
		req.apply(&srv)
		if err := db.WithContext(c.Request.Context()).Create(&srv).Error; err != nil {
			handleError(c, err, "Failed to create server")
			return
		}
		logrus.WithFields(logrus.Fields{"server_id": srv.ID, "host": srv.Host}).Info("Server created")
		respondCreated(c, "Server created", srv)
	}
}

// UpdateServerHandler replaces a node's settings
func UpdateServerHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		tx := db.WithContext(c.Request.Context())
		var srv domain.Server
		if err := tx.First(&srv, id).Error; err != nil {
			handleError(c, domain.ErrServerMissing, "")
			return
		}
		var req ServerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, serverValidationMsg)
			return
		}
		req.apply(&srv)
		if err := tx.Save(&srv).Error; err != nil {
			handleError(c, err, "Failed to update server")
			return
		}
		respondOK(c, "Server updated", srv)
	}
}

// DeleteServerHandler removes a node
func DeleteServerHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		res := db.WithContext(c.Request.Context()).Delete(&domain.Server{}, id)
		if res.Error != nil {
			handleError(c, res.Error, "Failed to delete server")
			return
		}
		if res.RowsAffected == 0 {
			handleError(c, domain.ErrServerMissing, "")
			return
		}
		respondOK(c, "Server deleted", nil)
	}
}
