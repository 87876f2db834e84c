// Copyright (c) 2026 SignOn. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"context"
	"fmt"

	"github.com/taibuivan/signon/internal/platform/apperr"
	"github.com/taibuivan/signon/internal/platform/constants"
	"github.com/taibuivan/signon/internal/platform/sec"
)

// Manager owns the session lifecycle on top of a [Repository].
type Manager struct {
	repository Repository
}

// NewManager constructs a session [Manager].
func NewManager(repository Repository) *Manager {
	return &Manager{repository: repository}
}

// Start begins (or resumes) the account's single live session.
func (manager *Manager) Start(context context.Context, email string) (*Session, error) {
	id, err := sec.GenerateSecureToken(constants.SessionIDLength)
	if err != nil {
		return nil, fmt.Errorf("session: generate id: %w", err)
	}

	return manager.repository.CreateOrReuse(context, email, id)
}

// Resolve returns the live session with the given id. Expired or unknown ids
// map to "not-signed-in"; the two are indistinguishable to callers.
func (manager *Manager) Resolve(context context.Context, id string) (*Session, error) {
	entry, err := manager.repository.FindByID(context, id)
	if apperr.IsNotFound(err) {
		return nil, apperr.NotSignedIn()
	}
	if err != nil {
		return nil, err
	}
	if !entry.IsLive() {
		return nil, apperr.NotSignedIn()
	}

	return entry, nil
}

// End expires every live session for the account.
func (manager *Manager) End(context context.Context, email string) error {
	_, err := manager.repository.ExpireAll(context, email)
	return err
}
