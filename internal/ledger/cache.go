package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const versionKeyPrefix = "ledger:version:"

// Cache wraps Redis based ledger caching with per-account versioning.
// Bumping an account's version orphans every key built under the old one,
// so a payment write never serves a stale statement.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache instantiates the cache helper.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Version returns the account's current cache version, initialising when missing.
func (c *Cache) Version(ctx context.Context, accountID int64) (int64, error) {
	if c == nil || c.client == nil {
		return 0, nil
	}
	key := versionKey(accountID)
	ver, err := c.client.Get(ctx, key).Int64()
	if err == redis.Nil {
		if err := c.client.Set(ctx, key, 1, 0).Err(); err != nil {
			return 0, err
		}
		return 1, nil
	}
	if err != nil {
		return 0, err
	}
	if ver <= 0 {
		ver = 1
		if err := c.client.Set(ctx, key, ver, 0).Err(); err != nil {
			return 0, err
		}
	}
	return ver, nil
}

// BuildKey composes a cache key under the account's current version.
func (c *Cache) BuildKey(ctx context.Context, accountID int64, parts ...string) (string, error) {
	joined := strings.Join(parts, ":")
	if c == nil || c.client == nil {
		return joined, nil
	}
	ver, err := c.Version(ctx, accountID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:%d", joined, ver), nil
}

// FetchJSON loads a cached value or populates it using the loader.
func (c *Cache) FetchJSON(ctx context.Context, key string, dest interface{}, loader func(context.Context) (interface{}, error)) error {
	if loader == nil {
		return errors.New("cache: loader required")
	}
	if c == nil || c.client == nil {
		value, err := loader(ctx)
		if err != nil {
			return err
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return err
		}
		return json.Unmarshal(raw, dest)
	}
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		return json.Unmarshal(payload, dest)
	}
	if err != redis.Nil {
		return err
	}
	value, err := loader(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

// Bump invalidates the account's cached ledger views by incrementing its version.
func (c *Cache) Bump(ctx context.Context, accountID int64) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Incr(ctx, versionKey(accountID)).Err()
}

func versionKey(accountID int64) string {
	return versionKeyPrefix + strconv.FormatInt(accountID, 10)
}

func keyEntries(accountID int64) string {
	return strings.Join([]string{"ledger", "entries", strconv.FormatInt(accountID, 10)}, ":")
}

func keySummary(accountID int64, asOf time.Time) string {
	return strings.Join([]string{"ledger", "summary", strconv.FormatInt(accountID, 10), asOf.Format("2006-01-02")}, ":")
}
