package domain

// Setting is a key/value site configuration entry
type Setting struct {
	Key         string `gorm:"primaryKey;column:setting_key;size:64" json:"key"`
	Value       string `gorm:"type:text" json:"value"`
	Description string `gorm:"size:255" json:"description"`
}

// Setting keys
const (
	SettingSiteName       = "site_name"
	SettingCommissionRate = "commission_rate"
	SettingMinWithdrawal  = "min_withdrawal"
	SettingCurrency       = "currency"
	SettingPaymentMethods = "payment_methods"
)

// DefaultSettings are returned for keys that were never stored
var DefaultSettings = map[string]string{
	SettingSiteName:       "XPanel",
	SettingCommissionRate: "0.10",
	SettingMinWithdrawal:  "100",
	SettingCurrency:       "CNY",
	SettingPaymentMethods: `["alipay","wechat","stripe"]`,
}
