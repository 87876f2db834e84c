// Copyright (c) 2026 SignOn. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	stdctx "context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/signon/internal/platform/constants"
)

// cacheTTL bounds staleness of the read-through cache. A signed-out session
// is deleted from the cache eagerly, so the TTL only covers crash windows.
const cacheTTL = time.Minute

// CachedRepository is a read-through Redis cache in front of a session
// [Repository]. FindByID runs on every authenticated request, so it is the
// one lookup worth keeping off the primary database.
type CachedRepository struct {
	inner  Repository
	redis  *redis.Client
	logger *slog.Logger
}

// NewCachedRepository wraps inner with a Redis read-through cache.
func NewCachedRepository(inner Repository, redisClient *redis.Client, logger *slog.Logger) *CachedRepository {
	return &CachedRepository{
		inner:  inner,
		redis:  redisClient,
		logger: logger,
	}
}

// CreateOrReuse implements [Repository]. Writes go straight through; the
// cache is populated lazily by FindByID.
func (repository *CachedRepository) CreateOrReuse(context stdctx.Context, email string, id string) (*Session, error) {
	return repository.inner.CreateOrReuse(context, email, id)
}

// FindByID implements [Repository] with a read-through cache. Cache failures
// degrade to the inner repository, never to a request failure.
func (repository *CachedRepository) FindByID(context stdctx.Context, id string) (*Session, error) {
	key := constants.RedisPrefixSession + id

	cached, err := repository.redis.Get(context, key).Bytes()
	if err == nil {
		var entry Session
		if unmarshalErr := json.Unmarshal(cached, &entry); unmarshalErr == nil {
			return &entry, nil
		}
		// Unreadable payload: fall through and repopulate.
	} else if !errors.Is(err, redis.Nil) {
		repository.logger.WarnContext(context, "session_cache_read_failed", slog.Any("error", err))
	}

	entry, err := repository.inner.FindByID(context, id)
	if err != nil {
		return nil, err
	}

	if payload, marshalErr := json.Marshal(entry); marshalErr == nil {
		if setErr := repository.redis.Set(context, key, payload, cacheTTL).Err(); setErr != nil {
			repository.logger.WarnContext(context, "session_cache_write_failed", slog.Any("error", setErr))
		}
	}

	return entry, nil
}

// ExpireAll implements [Repository] and eagerly evicts the expired sessions
// from the cache so sign-out takes effect immediately.
func (repository *CachedRepository) ExpireAll(context stdctx.Context, email string) ([]string, error) {
	ids, err := repository.inner.ExpireAll(context, email)
	if err != nil {
		return nil, err
	}

	for _, id := range ids {
		if delErr := repository.redis.Del(context, constants.RedisPrefixSession+id).Err(); delErr != nil {
			repository.logger.WarnContext(context, "session_cache_evict_failed",
				slog.String("session_id_suffix", suffix(id)),
				slog.Any("error", delErr),
			)
		}
	}

	return ids, nil
}

// suffix returns the last few characters of a session id for logging without
// disclosing the credential.
func suffix(id string) string {
	if len(id) <= 4 {
		return id
	}
	return id[len(id)-4:]
}
