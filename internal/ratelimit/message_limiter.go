package ratelimit

import (
	"context"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"

	"github.com/atelierlab/devisio/internal/config"
)

const (
	keyMessagePostOrg   = "message:post:org:%s"
	keyMessagePostActor = "message:post:actor:%s"

	// 1 message/second sustained, short bursts allowed; generous for humans,
	// tight enough to stop runaway clients.
	orgRate    = 5.0
	orgBurst   = 30
	actorRate  = 1.0
	actorBurst = 10
)

// MessageLimiter throttles message posting per organization and per actor.
// Disabled (all posts allowed) when no redis address is configured.
type MessageLimiter struct {
	enabled bool
	bucket  *TokenBucket
}

func NewMessageLimiter(cfg config.Config) *MessageLimiter {
	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" {
		return &MessageLimiter{}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(cfg.RedisPassword),
	})
	return &MessageLimiter{
		enabled: true,
		bucket:  NewTokenBucket(client),
	}
}

func (l *MessageLimiter) Enabled() bool {
	return l != nil && l.enabled
}

func (l *MessageLimiter) AllowOrg(ctx context.Context, orgID string) (bool, error) {
	if !l.Enabled() {
		return true, nil
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyMessagePostOrg, strings.TrimSpace(orgID)), orgRate, orgBurst)
}

func (l *MessageLimiter) AllowActor(ctx context.Context, actor string) (bool, error) {
	if !l.Enabled() {
		return true, nil
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyMessagePostActor, strings.TrimSpace(actor)), actorRate, actorBurst)
}
