// Copyright (c) 2026 SignOn. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package group implements the authorization graph.

Groups form a forest: each group may name a parent, permissions flow downward
from parent to child, and administrative authority over a group cascades to
all of its descendants. The resolver in this package is a pure function over
an in-memory snapshot of the graph; it performs no I/O.
*/
package group

import "time"

// Group statuses.
const (
	StatusActive  = "active"
	StatusDeleted = "deleted"
)

// Group is a node in the authorization graph.
type Group struct {
	// Slug is the primary key.
	Slug string `json:"slug"`
	// Name is the display name.
	Name string `json:"name"`
	// Permissions are the capability strings this group grants its members.
	// The field is stripped before crossing the trust boundary to non-root
	// callers.
	Permissions []string `json:"permissions,omitempty"`
	// Owner is the permission string required to administer this group.
	Owner string `json:"owner"`
	// Parent is the slug of the parent group, or nil for a root.
	Parent *string `json:"parent"`
	// Status is "active" or "deleted". Soft-deleted groups stay in storage
	// but are excluded from resolution.
	Status  string    `json:"status"`
	Created time.Time `json:"created"`
}

// IsActive reports whether the group participates in permission resolution.
func (group *Group) IsActive() bool {
	return group.Status == StatusActive
}
