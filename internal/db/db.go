package db

import (
	"context"
	"fmt"
	"time"

	"xpanel/internal/config"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DSN builds the driver specific connection string
func DSN(cfg *config.Config) string {
	if cfg.DBDriver == "postgres" {
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
			cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort)
	}
	return cfg.DBUser + ":" + cfg.DBPassword + "@tcp(" + cfg.DBHost + ":" + cfg.DBPort + ")/" + cfg.DBName + "?parseTime=true&loc=UTC&charset=utf8mb4"
}

// newGormLogger writes SQL logs through w. Lookups that miss are expected
// in normal flows and are not logged.
func newGormLogger(w logger.Writer, level logger.LogLevel) logger.Interface {
	return logger.New(w, logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}

// GormConfig is shared by the server, the CLIs and tests
func GormConfig(isProd bool) *gorm.Config {
	level := logger.Info
	if isProd {
		level = logger.Warn
	}
	return &gorm.Config{
		NowFunc:                                  func() time.Time { return time.Now().UTC() },
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   newGormLogger(logrus.StandardLogger(), level),
	}
}

// Open connects to the configured database
func Open(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "postgres":
		dialector = postgres.Open(DSN(cfg))
	default:
		dialector = mysql.Open(DSN(cfg))
	}
	db, err := gorm.Open(dialector, GormConfig(cfg.IsProd))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	logrus.WithField("driver", cfg.DBDriver).Info("Connected to database")
	return db, nil
}

// OpenRedis returns nil when no address is configured
func OpenRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	if cfg.RedisAddr == "" {
		logrus.Warn("REDIS_ADDR not set, caching and rate limiting disabled")
		return nil, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr, // Redis server address
		Password: cfg.RedisPass, // Redis password
		DB:       cfg.RedisDB,   // Redis database number
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return rdb, nil
}
