// Copyright (c) 2026 SignOn. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	stdctx "context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/signon/internal/platform/constants"
	"github.com/taibuivan/signon/internal/platform/sec"
)

// ErrStateUnknown is returned when a federated callback carries a state
// nonce that was never issued, already redeemed, or timed out.
var ErrStateUnknown = errors.New("auth: unknown oauth state")

// stateIDLength is the byte length of a federated sign-in state nonce.
const stateIDLength = 16

// StateStore holds pending federated sign-in state in Redis.
//
// The nonce doubles as CSRF protection and as the carrier of the caller's
// post-sign-in redirect: the consent URL only ever contains the opaque nonce,
// never the redirect itself.
type StateStore struct {
	redis *redis.Client
}

// NewStateStore constructs a [StateStore].
func NewStateStore(redisClient *redis.Client) *StateStore {
	return &StateStore{redis: redisClient}
}

// Issue stores the redirect under a fresh nonce and returns the nonce.
func (store *StateStore) Issue(context stdctx.Context, redirect string) (string, error) {
	nonce, err := sec.GenerateSecureToken(stateIDLength)
	if err != nil {
		return "", fmt.Errorf("auth: generate state: %w", err)
	}

	key := constants.RedisPrefixOAuthState + nonce
	if err := store.redis.Set(context, key, redirect, constants.OAuthStateTTL).Err(); err != nil {
		return "", fmt.Errorf("auth: store state: %w", err)
	}

	return nonce, nil
}

// Redeem returns the redirect stored under the nonce and deletes it, so a
// state can be redeemed exactly once.
func (store *StateStore) Redeem(context stdctx.Context, nonce string) (string, error) {
	key := constants.RedisPrefixOAuthState + nonce

	redirect, err := store.redis.GetDel(context, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrStateUnknown
	}
	if err != nil {
		return "", fmt.Errorf("auth: redeem state: %w", err)
	}

	return redirect, nil
}
