// Copyright (c) 2026 SignOn. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

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

// CreateOrReuse implements [Repository].
//
// The insert targets the partial unique index on (user_email) WHERE expired
// IS NULL. On conflict nothing is written and the follow-up select returns
// whichever live session won.
func (repository *PostgresRepository) CreateOrReuse(context context.Context, email string, id string) (*Session, error) {
	const insert = `
		INSERT INTO sessions (id, user_email)
		VALUES ($1, $2)
		ON CONFLICT (user_email) WHERE expired IS NULL DO NOTHING`

	normalized := user.NormalizeEmail(email)

	if _, err := repository.pool.Exec(context, insert, id, normalized); err != nil {
		return nil, fmt.Errorf("session: create: %w", err)
	}

	const selectLive = `
		SELECT id, user_email, expired, created
		FROM sessions
		WHERE user_email = $1 AND expired IS NULL`

	var entry Session
	err := repository.pool.QueryRow(context, selectLive, normalized).Scan(
		&entry.ID,
		&entry.UserEmail,
		&entry.Expired,
		&entry.Created,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		// The winner was expired between insert and select. Callers retry
		// sign-in; nothing to recover here.
		return nil, apperr.NotFound()
	}
	if err != nil {
		return nil, fmt.Errorf("session: select live: %w", err)
	}

	return &entry, nil
}

// FindByID implements [Repository].
func (repository *PostgresRepository) FindByID(context context.Context, id string) (*Session, error) {
	const query = `
		SELECT id, user_email, expired, created
		FROM sessions
		WHERE id = $1`

	var entry Session
	err := repository.pool.QueryRow(context, query, id).Scan(
		&entry.ID,
		&entry.UserEmail,
		&entry.Expired,
		&entry.Created,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound()
	}
	if err != nil {
		return nil, fmt.Errorf("session: find by id: %w", err)
	}

	return &entry, nil
}

// ExpireAll implements [Repository].
func (repository *PostgresRepository) ExpireAll(context context.Context, email string) ([]string, error) {
	const query = `
		UPDATE sessions
		SET expired = now()
		WHERE user_email = $1 AND expired IS NULL
		RETURNING id`

	rows, err := repository.pool.Query(context, query, user.NormalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("session: expire all: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("session: scan expired id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("session: iterate: %w", err)
	}

	return ids, nil
}
