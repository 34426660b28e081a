package domain

import "time"

// Server statuses as reported to admins
const (
	ServerDisabled    = 0
	ServerActive      = 1
	ServerMaintenance = 2
)

// Supported proxy protocols
const (
	ProtocolVMess       = "vmess"
	ProtocolVLESS       = "vless"
	ProtocolTrojan      = "trojan"
	ProtocolShadowsocks = "shadowsocks"
)

// Server is a proxy node users connect to
type Server struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:128;not null" json:"name"`
	Host        string    `gorm:"size:255;not null" json:"host"`
	Port        int       `gorm:"not null" json:"port"`
	Protocol    string    `gorm:"size:16;not null" json:"protocol"`
	Method      string    `gorm:"size:64" json:"method"`
	Password    string    `gorm:"size:255" json:"password,omitempty"`
	UUID        string    `gorm:"column:uuid;size:64" json:"uuid,omitempty"`
	Path        string    `gorm:"size:255" json:"path"`
	TLS         bool      `gorm:"column:tls;not null" json:"tls"`
	Country     string    `gorm:"size:64" json:"country"`
	City        string    `gorm:"size:64" json:"city"`
	FlagEmoji   string    `gorm:"size:16" json:"flag_emoji"`
	LoadBalance int       `gorm:"not null" json:"load_balance"`
	MaxUsers    int       `gorm:"not null" json:"max_users"`
	DeviceLimit int       `gorm:"not null" json:"device_limit"`
	Status      int       `gorm:"not null;index" json:"status"`
	SortOrder   int       `gorm:"not null" json:"sort_order"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ValidProtocol reports whether p is one of the supported protocols
func ValidProtocol(p string) bool {
	switch p {
	case ProtocolVMess, ProtocolVLESS, ProtocolTrojan, ProtocolShadowsocks:
		return true
	}
	return false
}
