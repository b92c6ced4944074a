package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/spiderhome/internal/model"
	"github.com/iliyamo/spiderhome/internal/repository"
)

// LoginGuard counts failed logins per client IP within a sliding window.
// Every attempt is written to the login_attempts store; the failure count
// comes from Redis when a client is set, otherwise from the store.
// Successes do not reset the count.
type LoginGuard struct {
	attempts repository.LoginAttemptRepository
	rdb      *redis.Client
	max      int
	window   time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// NewLoginGuard builds a guard allowing max failures per window.  rdb may
// be nil.
func NewLoginGuard(attempts repository.LoginAttemptRepository, rdb *redis.Client, max int, window time.Duration, logger *slog.Logger) *LoginGuard {
	return &LoginGuard{
		attempts: attempts,
		rdb:      rdb,
		max:      max,
		window:   window,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func failureKey(ip string) string { return "spiderhome:login:fail:" + ip }

// Blocked reports whether ip has reached the failure limit.  A counter
// that cannot be read never blocks.
func (g *LoginGuard) Blocked(ctx context.Context, ip string) bool {
	if g.rdb != nil {
		n, err := g.rdb.Get(ctx, failureKey(ip)).Int()
		switch {
		case err == nil:
			return n >= g.max
		case err != redis.Nil:
			g.logger.Warn("login counter read failed, using store", slog.Any("error", err))
		default:
			return false
		}
	}
	n, err := g.attempts.CountFailures(ctx, ip, g.now().Add(-g.window))
	if err != nil {
		g.logger.Warn("login counter unavailable", slog.Any("error", err))
		return false
	}
	return n >= g.max
}

// Record stores the attempt and, on failure, bumps the Redis counter.  The
// first increment sets the key's expiry so the window starts at the first
// failure.
func (g *LoginGuard) Record(ctx context.Context, ip, username string, success bool) {
	err := g.attempts.Record(ctx, model.LoginAttempt{
		IP: ip, Username: username, Success: success, AttemptedAt: g.now(),
	})
	if err != nil {
		g.logger.Warn("login attempt not recorded", slog.Any("error", err))
	}
	if success || g.rdb == nil {
		return
	}
	key := failureKey(ip)
	count, err := g.rdb.Incr(ctx, key).Result()
	if err != nil {
		g.logger.Warn("login counter increment failed", slog.Any("error", err))
		return
	}
	if count == 1 {
		g.rdb.Expire(ctx, key, g.window)
	}
}
