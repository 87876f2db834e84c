// Copyright (c) 2026 SignOn. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package mail

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/signon/internal/platform/apperr"
)

// PostgresTemplateRepository implements [TemplateRepository] backed by the
// emails table.
type PostgresTemplateRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresTemplateRepository constructs a [PostgresTemplateRepository].
func NewPostgresTemplateRepository(pool *pgxpool.Pool) *PostgresTemplateRepository {
	return &PostgresTemplateRepository{pool: pool}
}

// FindBySlug implements [TemplateRepository].
func (repository *PostgresTemplateRepository) FindBySlug(context context.Context, slug string) (*Template, error) {
	const query = `
		SELECT slug, subject, text, html
		FROM emails
		WHERE slug = $1`

	var template Template
	err := repository.pool.QueryRow(context, query, slug).Scan(
		&template.Slug,
		&template.Subject,
		&template.Text,
		&template.HTML,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound()
	}
	if err != nil {
		return nil, fmt.Errorf("mail: find template %q: %w", slug, err)
	}

	return &template, nil
}

// Save inserts or replaces a template. Used by the setup command.
func (repository *PostgresTemplateRepository) Save(context context.Context, template *Template) error {
	const query = `
		INSERT INTO emails (slug, subject, text, html)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (slug) DO UPDATE SET
			subject = EXCLUDED.subject,
			text    = EXCLUDED.text,
			html    = EXCLUDED.html`

	_, err := repository.pool.Exec(context, query,
		template.Slug,
		template.Subject,
		template.Text,
		template.HTML,
	)
	if err != nil {
		return fmt.Errorf("mail: save template %q: %w", template.Slug, err)
	}

	return nil
}
