// Copyright (c) 2026 SignOn. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import "context"

// Repository defines the data access contract for sessions.
type Repository interface {
	// CreateOrReuse inserts a live session with the given id for the
	// account, or returns the existing live one if the account already has
	// a session. The partial unique index makes this race-safe: of two
	// concurrent sign-ins, exactly one insert wins and both calls return
	// the same session.
	CreateOrReuse(context context.Context, email string, id string) (*Session, error)

	// FindByID returns the session with the given id regardless of
	// liveness, or [apperr.NotFound] if absent.
	FindByID(context context.Context, id string) (*Session, error)

	// ExpireAll expires every live session for the account and returns the
	// ids it expired.
	ExpireAll(context context.Context, email string) ([]string, error)
}
