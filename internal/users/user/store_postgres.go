// Copyright (c) 2026 SignOn. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package user

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

const userColumns = `email, name, groups, password_hash, google_id, picture, created`

// FindByEmail implements [Repository].
func (repository *PostgresRepository) FindByEmail(context context.Context, email string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	entry, err := scanUser(repository.pool.QueryRow(context, query, NormalizeEmail(email)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound()
	}
	if err != nil {
		return nil, fmt.Errorf("user: find by email: %w", err)
	}

	return entry, nil
}

// Save implements [Repository].
func (repository *PostgresRepository) Save(context context.Context, user *User) error {
	const query = `
		INSERT INTO users (email, name, groups, password_hash, google_id, picture)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (email) DO UPDATE SET
			name          = EXCLUDED.name,
			groups        = EXCLUDED.groups,
			password_hash = EXCLUDED.password_hash,
			google_id     = EXCLUDED.google_id,
			picture       = EXCLUDED.picture`

	_, err := repository.pool.Exec(context, query,
		NormalizeEmail(user.Email),
		user.Name,
		user.Groups,
		user.PasswordHash,
		user.GoogleID,
		user.Picture,
	)
	if err != nil {
		return fmt.Errorf("user: save: %w", err)
	}

	return nil
}

// FindInGroups implements [Repository] using array overlap on the groups
// column.
func (repository *PostgresRepository) FindInGroups(context context.Context, slugs []string) ([]*User, error) {
	if len(slugs) == 0 {
		return nil, nil
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE groups && $1 ORDER BY email`

	rows, err := repository.pool.Query(context, query, slugs)
	if err != nil {
		return nil, fmt.Errorf("user: find in groups: %w", err)
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		entry, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("user: scan: %w", err)
		}
		users = append(users, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("user: iterate: %w", err)
	}

	return users, nil
}

func scanUser(row pgx.Row) (*User, error) {
	var entry User
	err := row.Scan(
		&entry.Email,
		&entry.Name,
		&entry.Groups,
		&entry.PasswordHash,
		&entry.GoogleID,
		&entry.Picture,
		&entry.Created,
	)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}
