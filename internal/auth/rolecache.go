package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/bookapi/book-api/internal/rbac"
)

const (
	roleCachePrefix   = "bookapi:roles:"
	roleVersionPrefix = "bookapi:roles-version:"

	// roleVersionTTL must outlive any single fill.
	roleVersionTTL = 24 * time.Hour
	// roleLookupTimeout bounds a shared source lookup, which no longer
	// follows the cancellation of the request that started it.
	roleLookupTimeout = 5 * time.Second
)

// RoleSource loads the role names of a user from the system of record.
type RoleSource interface {
	UserRoles(ctx context.Context, userID string) ([]string, error)
}

// LookupObserver counts cache lookups by result: hit, miss or error.
type LookupObserver interface {
	ObserveRoleLookup(result string)
}

// RoleCache fronts a RoleSource with Redis. Concurrent misses for one user
// share a single source lookup. A zero TTL or nil client disables caching.
//
// Every Invalidate bumps a per-user version key. A fill only writes when the
// version it read before loading is still current, so a lookup racing a
// role change never stores the roles it read before that change.
type RoleCache struct {
	source   RoleSource
	client   *redis.Client
	ttl      time.Duration
	group    singleflight.Group
	observer LookupObserver
}

// NewRoleCache builds a RoleCache. observer may be nil.
func NewRoleCache(source RoleSource, client *redis.Client, ttl time.Duration, observer LookupObserver) *RoleCache {
	return &RoleCache{source: source, client: client, ttl: ttl, observer: observer}
}

// UserRoles returns cached role names or loads them from the source. Source
// errors, including a missing user, are returned unchanged and not cached.
func (c *RoleCache) UserRoles(ctx context.Context, userID string) ([]string, error) {
	if !c.enabled() {
		return c.source.UserRoles(ctx, userID)
	}
	key := roleCachePrefix + userID
	// Unreadable entries and Redis failures fall back to the source.
	if payload, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var roles []string
		if json.Unmarshal(payload, &roles) == nil {
			c.observe("hit")
			return roles, nil
		}
	}
	c.observe("miss")

	ch := c.group.DoChan(key, func() (any, error) {
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), roleLookupTimeout)
		defer cancel()
		return c.fill(lookupCtx, userID)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			if !errors.Is(res.Err, rbac.ErrUserNotFound) {
				c.observe("error")
			}
			return nil, res.Err
		}
		return res.Val.([]string), nil
	}
}

func (c *RoleCache) fill(ctx context.Context, userID string) ([]string, error) {
	key := roleCachePrefix + userID
	versionKey := roleVersionPrefix + userID
	version, err := c.client.Get(ctx, versionKey).Result()
	versionKnown := err == nil || errors.Is(err, redis.Nil)
	if !versionKnown {
		c.observe("error")
	}

	roles, err := c.source.UserRoles(ctx, userID)
	if err != nil {
		return nil, err
	}
	if roles == nil {
		roles = []string{}
	}
	raw, err := json.Marshal(roles)
	if err != nil {
		return roles, nil
	}

	// Without a readable version the write cannot be checked.
	if !versionKnown {
		return roles, nil
	}
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, versionKey).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != version {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, raw, c.ttl)
			return nil
		})
		return err
	}, versionKey)
	if err != nil && !errors.Is(err, redis.TxFailedErr) {
		c.observe("error")
	}
	return roles, nil
}

// Invalidate drops the cached roles of a user and makes any fill that
// started earlier discard its result.
func (c *RoleCache) Invalidate(ctx context.Context, userID string) error {
	if !c.enabled() {
		return nil
	}
	versionKey := roleVersionPrefix + userID
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, versionKey)
		pipe.Expire(ctx, versionKey, roleVersionTTL)
		pipe.Del(ctx, roleCachePrefix+userID)
		return nil
	})
	c.group.Forget(roleCachePrefix + userID)
	if err != nil {
		return fmt.Errorf("auth: invalidate roles: %w", err)
	}
	return nil
}

func (c *RoleCache) enabled() bool {
	return c.client != nil && c.ttl > 0
}

func (c *RoleCache) observe(result string) {
	if c.observer != nil {
		c.observer.ObserveRoleLookup(result)
	}
}
