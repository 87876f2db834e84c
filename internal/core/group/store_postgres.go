// Copyright (c) 2026 SignOn. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package group

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository implements [Repository] backed by PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs a [PostgresRepository].
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// FindAllActive implements [Repository].
func (repository *PostgresRepository) FindAllActive(context context.Context) ([]*Group, error) {
	const query = `
		SELECT slug, name, permissions, owner, parent, status, created
		FROM groups
		WHERE status = 'active'
		ORDER BY slug`

	rows, err := repository.pool.Query(context, query)
	if err != nil {
		return nil, fmt.Errorf("group: find all active: %w", err)
	}
	defer rows.Close()

	var groups []*Group
	for rows.Next() {
		var entry Group
		if err := rows.Scan(
			&entry.Slug,
			&entry.Name,
			&entry.Permissions,
			&entry.Owner,
			&entry.Parent,
			&entry.Status,
			&entry.Created,
		); err != nil {
			return nil, fmt.Errorf("group: scan: %w", err)
		}
		groups = append(groups, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("group: iterate: %w", err)
	}

	return groups, nil
}

// Save implements [Repository].
func (repository *PostgresRepository) Save(context context.Context, group *Group) error {
	const query = `
		INSERT INTO groups (slug, name, permissions, owner, parent, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (slug) DO UPDATE SET
			name        = EXCLUDED.name,
			permissions = EXCLUDED.permissions,
			owner       = EXCLUDED.owner,
			parent      = EXCLUDED.parent,
			status      = EXCLUDED.status`

	_, err := repository.pool.Exec(context, query,
		group.Slug,
		group.Name,
		group.Permissions,
		group.Owner,
		group.Parent,
		group.Status,
	)
	if err != nil {
		return fmt.Errorf("group: save %q: %w", group.Slug, err)
	}

	return nil
}
