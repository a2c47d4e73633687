package authz

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultDecisionTTL bounds how long a cached decision may be served without
// re-evaluation. Stale-but-unexpired entries are an accepted trade-off.
const DefaultDecisionTTL = 300 * time.Second

const decisionKeyPrefix = "authz:decision:"

// DecisionCache memoizes decision engine outputs in Redis with a short TTL.
// Any cache failure degrades to a miss: the engine re-evaluates, nothing is
// ever allowed because the cache was unavailable.
type DecisionCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewDecisionCache constructs a DecisionCache. A zero ttl falls back to
// DefaultDecisionTTL.
func NewDecisionCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *DecisionCache {
	if ttl <= 0 {
		ttl = DefaultDecisionTTL
	}
	return &DecisionCache{client: client, ttl: ttl, logger: logger}
}

// Key derives the deterministic cache key for one (principal, permission,
// request shape) tuple.
func (c *DecisionCache) Key(p *Principal, permission, method, path string) string {
	pathHash := sha256.Sum256([]byte(path))
	sum := sha256.Sum256(fmt.Appendf(nil, "%d|%d|%s|%s|%s",
		p.ID, p.Role.ID, permission, method, hex.EncodeToString(pathHash[:])))
	return decisionKeyPrefix + hex.EncodeToString(sum[:])
}

// Get returns the cached decision for key, if present and unexpired.
func (c *DecisionCache) Get(ctx context.Context, key string) (Decision, bool) {
	if c == nil || c.client == nil {
		return Decision{}, false
	}
	payload, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil && c.logger != nil {
			c.logger.Warn("decision cache get", slog.Any("error", err))
		}
		return Decision{}, false
	}
	var decision Decision
	if err := json.Unmarshal(payload, &decision); err != nil {
		if c.logger != nil {
			c.logger.Warn("decision cache decode", slog.Any("error", err))
		}
		return Decision{}, false
	}
	return decision, true
}

// Put stores a decision under key for the cache TTL. Failures are logged and
// otherwise ignored.
func (c *DecisionCache) Put(ctx context.Context, key string, decision Decision) {
	if c == nil || c.client == nil {
		return
	}
	payload, err := json.Marshal(decision)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil && c.logger != nil {
		c.logger.Warn("decision cache put", slog.Any("error", err))
	}
}
