// Copyright (c) 2026 SignOn. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package link

import "context"

// Repository defines the data access contract for sign-in links.
type Repository interface {
	// Create persists a new redeemable link.
	Create(context context.Context, link *Link) error

	// Consume atomically expires the link with the given id and returns it.
	// A consumed or nonexistent id yields [apperr.LinkExpired]; of any
	// number of concurrent consumers, exactly one succeeds.
	Consume(context context.Context, id string) (*Link, error)
}
