// Copyright (c) 2026 SignOn. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package configuration

import (
	"context"
	"fmt"
	"strings"

	"github.com/taibuivan/signon/internal/platform/apperr"
)

// Repository defines the data access contract for configurations.
type Repository interface {
	// FindBySlug returns the configuration with the given slug, or
	// [apperr.NotFound] if absent.
	FindBySlug(context context.Context, slug string) (*Configuration, error)

	// Save inserts or replaces a configuration value.
	Save(context context.Context, configuration *Configuration) error
}

/*
LoadSnapshot reads the well-known configuration rows into an immutable
[Snapshot].

The private key, public key and cookie signature keys are mandatory; a
missing row aborts startup. Allowed origins may legitimately be empty when
the API is only called server-to-server.

Returns:
  - *Snapshot: The startup configuration view
  - error: Lookup failures or missing mandatory rows
*/
func LoadSnapshot(context context.Context, repository Repository) (*Snapshot, error) {
	privateKey, err := mustValue(context, repository, SlugPrivateKey)
	if err != nil {
		return nil, err
	}

	publicKey, err := mustValue(context, repository, SlugPublicKey)
	if err != nil {
		return nil, err
	}

	signatureKeys, err := mustValue(context, repository, SlugCookieSignatureKeys)
	if err != nil {
		return nil, err
	}

	origins, err := repository.FindBySlug(context, SlugAllowedOrigins)
	if err != nil && !apperr.IsNotFound(err) {
		return nil, fmt.Errorf("configuration: load %q: %w", SlugAllowedOrigins, err)
	}

	snapshot := &Snapshot{
		PrivateKey:          privateKey,
		PublicKey:           publicKey,
		CookieSignatureKeys: splitList(signatureKeys),
	}
	if origins != nil {
		snapshot.AllowedOrigins = splitList(origins.Value)
	}

	return snapshot, nil
}

func mustValue(context context.Context, repository Repository, slug string) (string, error) {
	configuration, err := repository.FindBySlug(context, slug)
	if err != nil {
		return "", fmt.Errorf("configuration: load %q: %w", slug, err)
	}
	return configuration.Value, nil
}

// splitList parses a comma-separated configuration value, trimming whitespace
// and dropping empty entries.
func splitList(value string) []string {
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))

	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
