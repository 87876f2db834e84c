// Copyright (c) 2026 SignOn. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package user defines the account entity and its storage contract.

The e-mail address is the primary key and is lower-cased at every write path,
so "User@Example.com" and "user@example.com" are the same account. An account
may hold a password credential, a federated Google identity, or both.
*/
package user

import (
	"strings"
	"time"
)

// User is a SignOn account.
type User struct {
	// Email is the primary key, always stored lower-case.
	Email string `json:"email"`
	// Name is the display name.
	Name string `json:"name"`
	// Groups are the slugs of the user's direct group memberships.
	Groups []string `json:"groups"`
	// PasswordHash is the bcrypt hash, or nil for accounts without a
	// password credential. Never serialized.
	PasswordHash *string `json:"-"`
	// GoogleID is the federated subject identifier, or nil.
	GoogleID *string `json:"-"`
	// Picture is the avatar URL, or nil.
	Picture *string `json:"picture,omitempty"`
	Created time.Time `json:"created"`
}

// HasPassword reports whether the account holds a password credential.
func (user *User) HasPassword() bool { return user.PasswordHash != nil }

// HasGoogle reports whether the account is linked to a Google identity.
func (user *User) HasGoogle() bool { return user.GoogleID != nil }

// NormalizeEmail lower-cases and trims an e-mail address for use as a key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
