// Copyright (c) 2026 SignOn. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package group

import (
	stdctx "context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/taibuivan/signon/internal/platform/apperr"
	"github.com/taibuivan/signon/internal/platform/validate"
)

// saveConcurrency caps the fan-out width for bulk group saves.
const saveConcurrency = 8

// Service owns group graph reads and administrator-driven bulk writes.
type Service struct {
	repository Repository
	logger     *slog.Logger
}

// NewService constructs a group [Service].
func NewService(repository Repository, logger *slog.Logger) *Service {
	return &Service{
		repository: repository,
		logger:     logger,
	}
}

// LoadGraph reads all active groups and indexes them for resolution.
func (service *Service) LoadGraph(context stdctx.Context) (*Graph, error) {
	groups, err := service.repository.FindAllActive(context)
	if err != nil {
		return nil, err
	}
	return NewGraph(groups), nil
}

/*
SaveAll validates and persists a batch of group upserts and soft-deletes.

Validation covers shape (slug format, required name and owner, known status)
and graph integrity: a save that would close a parent chain into a cycle is
rejected outright, checked against the merged view of the stored graph plus
the incoming batch. Writes are independent, so they fan out concurrently and
are awaited jointly.

Returns:
  - error: Validation failures as "missing-fields", storage failures wrapped
*/
func (service *Service) SaveAll(context stdctx.Context, groups []*Group) error {
	if len(groups) == 0 {
		return apperr.MissingFields(apperr.FieldError{Field: "groups", Message: "This field is required"})
	}

	for _, entry := range groups {
		validator := &validate.Validator{}
		validator.
			Slug("slug", entry.Slug).
			Required("name", entry.Name).
			Required("owner", entry.Owner).
			OneOf("status", entry.Status, StatusActive, StatusDeleted)
		if entry.Parent != nil {
			validator.Slug("parent", *entry.Parent)
		}
		if err := validator.Err(); err != nil {
			return err
		}
	}

	if err := service.rejectCycles(context, groups); err != nil {
		return err
	}

	workers, workerCtx := errgroup.WithContext(context)
	workers.SetLimit(saveConcurrency)

	for _, entry := range groups {
		entry := entry
		workers.Go(func() error {
			return service.repository.Save(workerCtx, entry)
		})
	}

	if err := workers.Wait(); err != nil {
		return fmt.Errorf("group: bulk save: %w", err)
	}

	service.logger.InfoContext(context, "groups_saved", slog.Int("count", len(groups)))

	return nil
}

// rejectCycles checks each incoming group against the merged view of the
// stored graph and the batch itself.
func (service *Service) rejectCycles(context stdctx.Context, incoming []*Group) error {
	stored, err := service.repository.FindAllActive(context)
	if err != nil {
		return err
	}

	merged := make(map[string]*Group, len(stored)+len(incoming))
	for _, entry := range stored {
		merged[entry.Slug] = entry
	}
	for _, entry := range incoming {
		merged[entry.Slug] = entry
	}

	all := make([]*Group, 0, len(merged))
	for _, entry := range merged {
		all = append(all, entry)
	}
	graph := NewGraph(all)

	for _, entry := range incoming {
		if !entry.IsActive() {
			continue
		}
		if graph.HasCycle(entry) {
			return apperr.MissingFields(apperr.FieldError{
				Field:   "parent",
				Message: fmt.Sprintf("Group %q would create a parent cycle", entry.Slug),
			})
		}
	}

	return nil
}
