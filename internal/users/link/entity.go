// Copyright (c) 2026 SignOn. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package link implements single-use sign-in links.

A link is a pending identity claim: sign-up, forgot-password and admin invite
flows all park the claimed identity here and prove e-mail ownership by the
round trip. Consuming a link is a compare-and-set in storage, so a link can
be redeemed exactly once no matter how many browsers race on it.
*/
package link

import "time"

// Link is a single-use sign-in claim.
type Link struct {
	// ID is the random secret embedded in the mailed URL.
	ID string `json:"id"`
	// Email is the claimed account, always lower-case.
	Email string `json:"email"`
	// Name is the claimed display name, applied on consumption.
	Name string `json:"name"`
	// PasswordHash is the pending password credential, or nil for flows
	// that set no password. Never serialized.
	PasswordHash *string `json:"-"`
	// Redirect is where the browser lands after consumption.
	Redirect string `json:"redirect"`
	// Expired is the consumption timestamp, or nil while redeemable.
	Expired *time.Time `json:"expired"`
	Created time.Time  `json:"created"`
}
