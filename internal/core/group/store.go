// Copyright (c) 2026 SignOn. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package group

import "context"

// Repository defines the data access contract for groups.
type Repository interface {
	// FindAllActive returns every group with status "active".
	FindAllActive(context context.Context) ([]*Group, error)

	// Save inserts or replaces a group by slug. The status column is written
	// as given, so a save with status "deleted" is the soft-delete path.
	Save(context context.Context, group *Group) error
}
