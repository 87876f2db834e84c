// Copyright (c) 2026 SignOn. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package group

import "sort"

/*
Graph is an immutable resolution snapshot of the active groups.

It is rebuilt from storage on every resolution call; the adjacency index maps
each slug to its children so closures only ever walk parent to child, never
child to parent.
*/
type Graph struct {
	bySlug   map[string]*Group
	children map[string][]string
}

// NewGraph indexes the given groups for resolution. Soft-deleted groups are
// excluded entirely: they neither grant permissions nor relay them to their
// descendants.
func NewGraph(groups []*Group) *Graph {
	graph := &Graph{
		bySlug:   make(map[string]*Group, len(groups)),
		children: make(map[string][]string, len(groups)),
	}

	for _, entry := range groups {
		if !entry.IsActive() {
			continue
		}
		graph.bySlug[entry.Slug] = entry
	}

	// Second pass so edges into soft-deleted parents are dropped too.
	for slug, entry := range graph.bySlug {
		if entry.Parent == nil {
			continue
		}
		if _, ok := graph.bySlug[*entry.Parent]; !ok {
			continue
		}
		graph.children[*entry.Parent] = append(graph.children[*entry.Parent], slug)
	}

	return graph
}

// Group returns the active group with the given slug, or nil.
func (graph *Graph) Group(slug string) *Group {
	return graph.bySlug[slug]
}

/*
EffectivePermissions computes the full permission set for the given direct
memberships.

The closure is seeded by the memberships and expanded through each group's
children: belonging to a group implicitly grants everything granted by its
descendants. Dangling membership slugs grant nothing. The visited set
guarantees termination even if stored parent chains cycle.

Returns:
  - []string: The deduplicated permission strings, sorted for determinism
*/
func (graph *Graph) EffectivePermissions(memberships []string) []string {
	permissions := make(map[string]struct{})

	graph.walk(memberships, func(entry *Group) {
		for _, permission := range entry.Permissions {
			permissions[permission] = struct{}{}
		}
	})

	return sortedKeys(permissions)
}

/*
OwnedSlugs computes the slugs of every group the holder of the given
effective permissions may administer.

A group is directly owned when its owner permission appears in the effective
set; ownership then cascades to all descendants.

Returns:
  - []string: The owned group slugs, sorted for determinism
*/
func (graph *Graph) OwnedSlugs(effectivePermissions []string) []string {
	effective := make(map[string]struct{}, len(effectivePermissions))
	for _, permission := range effectivePermissions {
		effective[permission] = struct{}{}
	}

	// Seed with every directly-owned group.
	var seeds []string
	for slug, entry := range graph.bySlug {
		if _, ok := effective[entry.Owner]; ok {
			seeds = append(seeds, slug)
		}
	}

	owned := make(map[string]struct{})
	graph.walk(seeds, func(entry *Group) {
		owned[entry.Slug] = struct{}{}
	})

	return sortedKeys(owned)
}

// OwnedGroups resolves owned slugs into group records. When
// includePermissions is false the permissions field is stripped, which is
// the shape sent to non-root callers.
func (graph *Graph) OwnedGroups(effectivePermissions []string, includePermissions bool) []*Group {
	slugs := graph.OwnedSlugs(effectivePermissions)
	groups := make([]*Group, 0, len(slugs))

	for _, slug := range slugs {
		entry := graph.bySlug[slug]
		view := *entry
		if !includePermissions {
			view.Permissions = nil
		}
		groups = append(groups, &view)
	}

	return groups
}

// AllGroups returns every active group sorted by slug, the root caller's
// view. When includePermissions is false the permissions field is stripped.
func (graph *Graph) AllGroups(includePermissions bool) []*Group {
	slugs := make([]string, 0, len(graph.bySlug))
	for slug := range graph.bySlug {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)

	groups := make([]*Group, 0, len(slugs))
	for _, slug := range slugs {
		view := *graph.bySlug[slug]
		if !includePermissions {
			view.Permissions = nil
		}
		groups = append(groups, &view)
	}

	return groups
}

// walk runs a breadth-first closure over the child edges, seeded by the
// given slugs, invoking visit once per reachable active group.
func (graph *Graph) walk(seeds []string, visit func(*Group)) {
	visited := make(map[string]struct{}, len(seeds))
	queue := make([]string, 0, len(seeds))

	for _, slug := range seeds {
		if _, ok := graph.bySlug[slug]; !ok {
			continue
		}
		if _, seen := visited[slug]; seen {
			continue
		}
		visited[slug] = struct{}{}
		queue = append(queue, slug)
	}

	for len(queue) > 0 {
		slug := queue[0]
		queue = queue[1:]

		visit(graph.bySlug[slug])

		for _, child := range graph.children[slug] {
			if _, seen := visited[child]; seen {
				continue
			}
			visited[child] = struct{}{}
			queue = append(queue, child)
		}
	}
}

// HasCycle reports whether adding or re-parenting candidate would close a
// parent chain into a loop. Saves are rejected on a true result; the visited
// set in walk keeps resolution safe regardless.
func (graph *Graph) HasCycle(candidate *Group) bool {
	if candidate.Parent == nil {
		return false
	}

	// Follow parent links from the proposed parent; reaching the candidate
	// itself means the chain loops.
	seen := map[string]struct{}{candidate.Slug: {}}
	current := *candidate.Parent

	for {
		if _, ok := seen[current]; ok {
			return true
		}
		seen[current] = struct{}{}

		entry := graph.bySlug[current]
		if entry == nil || entry.Parent == nil {
			return false
		}
		current = *entry.Parent
	}
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
