// Package ratelimit caps contact submissions per client within a fixed window.
//
// The counter lives in a Store: Upstash Redis over REST in production, or an
// in-memory map for single-instance deploys and tests. Any store failure lets
// the request through.
package ratelimit

import (
	"context"
	"time"

	"github.com/navarrastar/portfolio/pkg/logger"
	"github.com/navarrastar/portfolio/pkg/utils"
)

// Unlimited is reported as Remaining when no limit applies.
const Unlimited = -1

// Store is the counter backend. upstash.Client satisfies it.
type Store interface {
	Get(ctx context.Context, key string) (int64, bool, error)
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
	TTL(ctx context.Context, key string) (time.Duration, error)
}

// Result describes one rate limit decision.
type Result struct {
	Allowed   bool
	Remaining int
	ResetIn   time.Duration
}

// Limiter decides whether a client may submit.
type Limiter interface {
	Allow(ctx context.Context, clientIP string) Result
}

// Config sets the limit and its window.
type Config struct {
	Limit     int
	Window    time.Duration
	KeyPrefix string
}

type windowLimiter struct {
	store  Store
	cfg    Config
	lggr   logger.Logger
	hasher *utils.IPHasher
}

// New returns a fixed-window limiter over store.
func New(store Store, cfg Config, lggr logger.Logger, hasher *utils.IPHasher) Limiter {
	return &windowLimiter{store: store, cfg: cfg, lggr: lggr, hasher: hasher}
}

func (l *windowLimiter) Allow(ctx context.Context, clientIP string) Result {
	key := l.cfg.KeyPrefix + clientIP
	failOpen := func(op string, err error) Result {
		l.lggr.Warnw("Rate limit check failed, allowing request", "op", op, "client", l.hasher.Hash(clientIP), "err", err)
		return Result{Allowed: true, Remaining: l.cfg.Limit}
	}

	count, _, err := l.store.Get(ctx, key)
	if err != nil {
		return failOpen("get", err)
	}

	if count >= int64(l.cfg.Limit) {
		return l.deny(ctx, key, clientIP)
	}

	// INCR is the atomic step; its result decides when requests race past the read above
	n, err := l.store.Incr(ctx, key)
	if err != nil {
		return failOpen("incr", err)
	}
	if n == 1 {
		if err := l.store.Expire(ctx, key, l.cfg.Window); err != nil {
			return failOpen("expire", err)
		}
	}
	if n > int64(l.cfg.Limit) {
		return l.deny(ctx, key, clientIP)
	}

	return Result{
		Allowed:   true,
		Remaining: l.cfg.Limit - int(n),
		ResetIn:   l.cfg.Window,
	}
}

func (l *windowLimiter) deny(ctx context.Context, key, clientIP string) Result {
	ttl, err := l.store.TTL(ctx, key)
	if err != nil || ttl <= 0 {
		if err != nil {
			l.lggr.Warnw("Could not read rate limit expiry", "client", l.hasher.Hash(clientIP), "err", err)
		}
		// A counter without expiry would block forever; start a new window.
		if err := l.store.Expire(ctx, key, l.cfg.Window); err != nil {
			l.lggr.Warnw("Could not set rate limit expiry", "client", l.hasher.Hash(clientIP), "err", err)
		}
		ttl = l.cfg.Window
	}
	l.lggr.Infow("Rate limit exceeded", "client", l.hasher.Hash(clientIP), "resetIn", ttl.String())

	return Result{Allowed: false, Remaining: 0, ResetIn: ttl}
}

type disabledLimiter struct{}

// Disabled returns a limiter that allows every request.
func Disabled() Limiter {
	return disabledLimiter{}
}

func (disabledLimiter) Allow(context.Context, string) Result {
	return Result{Allowed: true, Remaining: Unlimited}
}
