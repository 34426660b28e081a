package db

import (
	"testing"

	"xpanel/internal/config"
	"xpanel/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestMigrateSeedsSettingsOnce(t *testing.T) {
	gdb, err := gorm.Open(sqlite.Open("file::memory:"), GormConfig(true))
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, Migrate(gdb))
	require.NoError(t, gdb.Model(&domain.Setting{}).
		Where("setting_key = ?", domain.SettingSiteName).Update("value", "Custom").Error)

	// a second run must keep the edited value
	require.NoError(t, Migrate(gdb))

	var s domain.Setting
	require.NoError(t, gdb.First(&s, "setting_key = ?", domain.SettingSiteName).Error)
	assert.Equal(t, "Custom", s.Value)

	var n int64
	gdb.Model(&domain.Setting{}).Count(&n)
	assert.Equal(t, int64(len(domain.DefaultSettings)), n)
}

func TestDSN(t *testing.T) {
	cfg := &config.Config{DBDriver: "mysql", DBUser: "u", DBPassword: "p", DBHost: "h", DBPort: "3306", DBName: "x"}
	assert.Equal(t, "u:p@tcp(h:3306)/x?parseTime=true&loc=UTC&charset=utf8mb4", DSN(cfg))

	cfg.DBDriver = "postgres"
	cfg.DBPort = "5432"
	assert.Contains(t, DSN(cfg), "host=h user=u password=p dbname=x port=5432")
}
