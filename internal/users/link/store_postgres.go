// Copyright (c) 2026 SignOn. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package link

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/signon/internal/platform/apperr"
	"github.com/taibuivan/signon/internal/users/user"
)

// PostgresRepository implements [Repository] backed by PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs a [PostgresRepository].
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Create implements [Repository].
func (repository *PostgresRepository) Create(context context.Context, link *Link) error {
	const query = `
		INSERT INTO links (id, email, name, password_hash, redirect)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := repository.pool.Exec(context, query,
		link.ID,
		user.NormalizeEmail(link.Email),
		link.Name,
		link.PasswordHash,
		link.Redirect,
	)
	if err != nil {
		return fmt.Errorf("link: create: %w", err)
	}

	return nil
}

// Consume implements [Repository].
//
// The single UPDATE is the compare-and-set: the WHERE clause only matches a
// still-redeemable row, so concurrent consumers race on the row lock and all
// but the winner see zero rows.
func (repository *PostgresRepository) Consume(context context.Context, id string) (*Link, error) {
	const query = `
		UPDATE links
		SET expired = now()
		WHERE id = $1 AND expired IS NULL
		RETURNING id, email, name, password_hash, redirect, expired, created`

	var entry Link
	err := repository.pool.QueryRow(context, query, id).Scan(
		&entry.ID,
		&entry.Email,
		&entry.Name,
		&entry.PasswordHash,
		&entry.Redirect,
		&entry.Expired,
		&entry.Created,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.LinkExpired()
	}
	if err != nil {
		return nil, fmt.Errorf("link: consume: %w", err)
	}

	return &entry, nil
}
