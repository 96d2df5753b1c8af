package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	revokedKeyPrefix = "session:revoked:"
	defaultTTL       = 5 * time.Minute
	opTimeout        = 500 * time.Millisecond
)

// RevocationCache remembers recently revoked sessions so the gate can reject them
// without a ledger lookup. The ledger stays authoritative: a miss or a Redis
// failure always falls through to it.
type RevocationCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRevocationCache creates a cache over client. A nil client disables caching.
func NewRevocationCache(client *redis.Client, ttl time.Duration) *RevocationCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RevocationCache{client: client, ttl: ttl}
}

func revokedKey(accountID, sessionToken string) string {
	return fmt.Sprintf("%s%s:%s", revokedKeyPrefix, accountID, sessionToken)
}

// RevokeSessions marks the account's session tokens as revoked
func (c *RevocationCache) RevokeSessions(ctx context.Context, accountID string, sessionTokens ...string) {
	if c == nil || c.client == nil || len(sessionTokens) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), opTimeout)
	defer cancel()

	pipe := c.client.Pipeline()
	for _, tok := range sessionTokens {
		pipe.Set(ctx, revokedKey(accountID, tok), 1, c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		slog.Warn("Failed to cache session revocation", "error", err, "account_id", accountID, "count", len(sessionTokens))
	}
}

// IsSessionRevoked reports a cached revocation. Errors are logged and read as a miss.
func (c *RevocationCache) IsSessionRevoked(ctx context.Context, accountID, sessionToken string) bool {
	if c == nil || c.client == nil {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	n, err := c.client.Exists(ctx, revokedKey(accountID, sessionToken)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("Revocation cache lookup failed", "error", err)
		}
		return false
	}
	return n > 0
}
