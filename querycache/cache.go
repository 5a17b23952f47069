// Package querycache is the explicit query-result cache that feeds the
// reconciliation engine: a key-value store keyed by the query parameters
// that produced a view, a per-agency invalidation topic, and a
// refetch-on-invalidate subscription. Mutations never touch cached values
// directly; they publish the topic and the cached keys are dropped.
package querycache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bitbucket.org/agencydesk/backoffice_backend/config"
)

const (
	keyPrefix      = "reconview:"
	topicKeySetFmt = "reconview:keys:%s"
	channel        = "reconview:invalidate"
)

// Key builds a cache key from query parameters. Everything that changes a
// view's inputs must appear here: a computation is keyed by the parameters
// that produced its inputs, so a late result for an older parameter set can
// never be served against a newer query.
func Key(agencyId string, parts ...any) string {
	b := strings.Builder{}
	b.WriteString(keyPrefix)
	b.WriteString(agencyId)
	for _, p := range parts {
		b.WriteString(":")
		b.WriteString(fmt.Sprint(p))
	}
	return b.String()
}

// GetView reads a cached view build. Miss (or redis down) returns false.
func GetView(ctx context.Context, key string, dest any) bool {
	found, err := config.GetRedisObject(key, dest)
	if err != nil {
		config.LogError(config.GetLogger(), "querycache/cache.go", "GetView", "redis get", key, err)
		return false
	}
	return found
}

// SetView stores a built view under its query key and tracks the key in the
// agency's key set so invalidation can drop it.
func SetView(ctx context.Context, agencyId string, key string, view any, ttl time.Duration) {
	logger := config.GetLogger()
	if err := config.SetRedisObject(key, view, ttl); err != nil {
		config.LogError(logger, "querycache/cache.go", "SetView", "redis set", key, err)
		return
	}
	if err := config.AddRedisSet(fmt.Sprintf(topicKeySetFmt, agencyId), key); err != nil {
		config.LogError(logger, "querycache/cache.go", "SetView", "track key", key, err)
	}
}

// InvalidateViews drops every cached view for the agency and broadcasts the
// invalidation so other instances drop theirs too. Called by mutations on
// success only; failures here are logged, not surfaced, because the store
// write already happened and the TTL bounds the staleness window.
func InvalidateViews(ctx context.Context, agencyId string) {
	logger := config.GetLogger()
	setKey := fmt.Sprintf(topicKeySetFmt, agencyId)

	keys, err := config.GetRedisSetMembers(setKey)
	if err != nil {
		config.LogError(logger, "querycache/cache.go", "InvalidateViews", "list keys", agencyId, err)
		return
	}
	if len(keys) > 0 {
		if err := config.RemoveRedisKey(append(keys, setKey)...); err != nil {
			config.LogError(logger, "querycache/cache.go", "InvalidateViews", "drop keys", agencyId, err)
		}
	}

	rdb := config.GetRedisDB()
	if rdb == nil {
		return
	}
	if err := rdb.Publish(ctx, channel, agencyId).Err(); err != nil {
		config.LogError(logger, "querycache/cache.go", "InvalidateViews", "publish", agencyId, err)
	}
}

// SubscribeInvalidations runs until ctx is done, calling onStale with the
// agency id of every invalidation broadcast. The server uses this to drop
// process-local state; the redis keys are already gone by the time the
// message arrives.
func SubscribeInvalidations(ctx context.Context, onStale func(agencyId string)) {
	rdb := config.GetRedisDB()
	if rdb == nil {
		return
	}
	sub := rdb.Subscribe(ctx, channel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			onStale(msg.Payload)
		}
	}
}
