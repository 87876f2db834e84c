// Copyright (c) 2026 SignOn. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package slice provides small generic helpers for slice transformation.
package slice

// Unique returns a new slice with duplicates removed, preserving first-seen
// order.
func Unique[T comparable](items []T) []T {
	seen := make(map[T]struct{}, len(items))
	result := make([]T, 0, len(items))

	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		result = append(result, item)
	}

	return result
}

// Filter returns a new slice holding only the items for which keep returns
// true.
func Filter[T any](items []T, keep func(T) bool) []T {
	result := make([]T, 0, len(items))

	for _, item := range items {
		if keep(item) {
			result = append(result, item)
		}
	}

	return result
}

// Map transforms each item through fn into a new slice.
func Map[T, U any](items []T, fn func(T) U) []U {
	result := make([]U, len(items))

	for i, item := range items {
		result[i] = fn(item)
	}

	return result
}
