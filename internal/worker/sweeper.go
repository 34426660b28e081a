// Package worker runs periodic background maintenance.
package worker

import (
	"context" // Request scoped cancellation
	"time"    // Time handling

	"xpanel/internal/billing" // Business operations

	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
)

const sweepLockKey = "lock:sweeper" // Redis key held by the active sweeper

// Sweeper expires stale orders, subscriptions and codes on a timer
type Sweeper struct {
	Billing  *billing.Service
	Redis    *redis.Client // optional, guards against concurrent instances
	Interval time.Duration // Time between sweeps
}

func NewSweeper(svc *billing.Service, rdb *redis.Client, interval time.Duration) *Sweeper {
	return &Sweeper{Billing: svc, Redis: rdb, Interval: interval}
}

// Start runs a sweep immediately and then every Interval until ctx is done
func (s *Sweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.Interval) // Periodic trigger
	defer ticker.Stop()
	logrus.WithField("interval", s.Interval.String()).Info("Background sweeper started")

	s.RunOnce(ctx) // Sweep at startup
	for {
		select {
		case <-ctx.Done():
			logrus.Info("Background sweeper stopped")
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce performs one sweep if this instance wins the lock. It reports
// whether a sweep ran.
func (s *Sweeper) RunOnce(ctx context.Context) bool {
	if s.Redis != nil {
		ok, err := s.Redis.SetNX(ctx, sweepLockKey, "1", s.Interval/2).Result() // Lock expires before the next tick
		if err != nil {
			logrus.WithError(err).Warn("Sweeper lock unavailable, skipping")
			return false // Redis down
		}
		if !ok {
			return false // Another instance holds the lock
		}
	}

	res, err := s.Billing.Sweep(ctx)
	if err != nil {
		logrus.WithError(err).Error("Sweep failed")
		return true
	}
	if res != (billing.SweepResult{}) { // Log only when something changed
		logrus.WithFields(logrus.Fields{
			"cancelled_orders":      res.CancelledOrders,
			"expired_subscriptions": res.ExpiredSubscriptions,
			"expired_codes":         res.ExpiredCodes,
		}).Info("Sweep completed")
	}
	return true
}
