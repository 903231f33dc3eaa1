package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/mechswap-api/pkg/logger"
)

const keyPrefix = "mechswap:rl:"

// Decision resultado de una consulta al limitador.
type Decision struct {
	Allowed   bool
	Remaining int
	ResetIn   time.Duration
}

// Limiter ventana fija por clave sobre Redis (INCR + EXPIRE en el primer acceso).
// Si Redis no responde la petición se deja pasar.
type Limiter struct {
	rdb *redis.Client
	log *logger.Logger
}

// New crea el limitador. rdb nil desactiva el límite.
func New(rdb *redis.Client, log *logger.Logger) *Limiter {
	if log == nil {
		log = logger.Nop()
	}
	return &Limiter{rdb: rdb, log: log.Named("ratelimit")}
}

// Allow cuenta un acceso de key en la ventana actual.
func (l *Limiter) Allow(ctx context.Context, key string, max int, window time.Duration) Decision {
	if l == nil || l.rdb == nil || max <= 0 {
		return Decision{Allowed: true, Remaining: max}
	}
	d, err := l.hit(ctx, keyPrefix+key, max, window)
	if err != nil {
		l.log.Warn().Err(err).Str("key", key).Msg("rate limit sin Redis, se permite la petición")
		return Decision{Allowed: true, Remaining: max}
	}
	return d
}

func (l *Limiter) hit(ctx context.Context, key string, max int, window time.Duration) (Decision, error) {
	count, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("incr %s: %w", key, err)
	}
	if count == 1 {
		if err := l.rdb.Expire(ctx, key, window).Err(); err != nil {
			return Decision{}, fmt.Errorf("expire %s: %w", key, err)
		}
	}
	ttl, err := l.rdb.TTL(ctx, key).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("ttl %s: %w", key, err)
	}
	if ttl < 0 {
		// clave sin expiración tras un fallo previo de EXPIRE
		if err := l.rdb.Expire(ctx, key, window).Err(); err != nil {
			return Decision{}, fmt.Errorf("expire %s: %w", key, err)
		}
		ttl = window
	}
	remaining := max - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return Decision{Allowed: int(count) <= max, Remaining: remaining, ResetIn: ttl}, nil
}

// Ping comprueba la conexión con Redis.
func (l *Limiter) Ping(ctx context.Context) error {
	if l == nil || l.rdb == nil {
		return nil
	}
	return l.rdb.Ping(ctx).Err()
}
