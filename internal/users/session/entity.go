// Copyright (c) 2026 SignOn. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package session implements the long-lived credential behind the session
cookie.

At most one live session exists per account, enforced by a partial unique
index in storage; signing in from a second browser reuses the existing
session rather than minting a second one. Sessions never expire by age, only
by explicit sign-out, which expires every live session for the account at
once.
*/
package session

import "time"

// Session is a long-lived sign-in credential.
type Session struct {
	// ID is the random secret carried by the cookie.
	ID string `json:"id"`
	// UserEmail is the owning account, always lower-case.
	UserEmail string `json:"userEmail"`
	// Expired is the expiry timestamp, or nil while the session is live.
	Expired *time.Time `json:"expired"`
	Created time.Time  `json:"created"`
}

// IsLive reports whether the session is still usable.
func (session *Session) IsLive() bool { return session.Expired == nil }
