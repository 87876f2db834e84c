// Copyright (c) 2026 SignOn. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package user

import "context"

// Repository defines the data access contract for accounts.
type Repository interface {
	// FindByEmail returns the account with the given (already normalized)
	// e-mail, or [apperr.NotFound] if absent.
	FindByEmail(context context.Context, email string) (*User, error)

	// Save inserts or replaces an account by e-mail.
	Save(context context.Context, user *User) error

	// FindInGroups returns every account whose direct memberships overlap
	// the given slugs.
	FindInGroups(context context.Context, slugs []string) ([]*User, error)
}
