// Copyright (c) 2026 SignOn. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package configuration

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/signon/internal/platform/apperr"
)

// PostgresRepository implements [Repository] backed by PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs a [PostgresRepository].
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// FindBySlug implements [Repository].
func (repository *PostgresRepository) FindBySlug(context context.Context, slug string) (*Configuration, error) {
	const query = `
		SELECT slug, value, created
		FROM configurations
		WHERE slug = $1`

	var configuration Configuration
	err := repository.pool.QueryRow(context, query, slug).Scan(
		&configuration.Slug,
		&configuration.Value,
		&configuration.Created,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound()
	}
	if err != nil {
		return nil, fmt.Errorf("configuration: find %q: %w", slug, err)
	}

	return &configuration, nil
}

// Save implements [Repository].
func (repository *PostgresRepository) Save(context context.Context, configuration *Configuration) error {
	const query = `
		INSERT INTO configurations (slug, value)
		VALUES ($1, $2)
		ON CONFLICT (slug) DO UPDATE SET value = EXCLUDED.value`

	if _, err := repository.pool.Exec(context, query, configuration.Slug, configuration.Value); err != nil {
		return fmt.Errorf("configuration: save %q: %w", configuration.Slug, err)
	}

	return nil
}
