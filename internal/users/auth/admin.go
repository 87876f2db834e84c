// Copyright (c) 2026 SignOn. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	stdctx "context"
	"log/slog"
	"slices"

	"github.com/taibuivan/signon/internal/core/group"
	"github.com/taibuivan/signon/internal/platform/apperr"
	"github.com/taibuivan/signon/internal/platform/constants"
	"github.com/taibuivan/signon/internal/platform/sec"
	"github.com/taibuivan/signon/internal/users/link"
	"github.com/taibuivan/signon/internal/users/user"
	"github.com/taibuivan/signon/pkg/slice"
)

// Templates an administrator may dispatch through set-user. Anything else is
// an authorization failure, not a validation one, so template slugs cannot
// be probed.
var invitableTemplates = []string{constants.MailForgotPassword, constants.MailWelcome}

/*
SetMe updates the caller's own name and password.

A nil field is left untouched. A present-but-empty password is rejected as
insecure; a present-but-empty name is rejected as missing.

Returns:
  - *SignInResult: The updated identity subset with a fresh token
*/
func (service *Service) SetMe(context stdctx.Context, sessionID string, name, password *string) (*SignInResult, error) {
	caller, err := service.identify(context, sessionID)
	if err != nil {
		return nil, err
	}

	account := caller.user

	if name != nil {
		if *name == "" {
			return nil, apperr.MissingFields(apperr.FieldError{Field: "name", Message: "This field is required"})
		}
		account.Name = *name
	}

	if password != nil {
		if *password == "" {
			return nil, apperr.PasswordInsecure()
		}
		passwordHash, err := sec.HashPassword(*password)
		if err != nil {
			return nil, apperr.ServerError(err)
		}
		account.PasswordHash = &passwordHash
	}

	if err := service.users.Save(context, account); err != nil {
		return nil, err
	}

	service.logger.InfoContext(context, "user_updated_self", slog.String("email", account.Email))

	return service.signInResult(caller)
}

/*
Load returns the caller's administered view: the groups they own and every
account holding a membership in one of them.

Root callers (effective permissions include the administrator marker) see all
groups with their permission grants; everyone else sees only their owned
groups, with the permissions field stripped. Each listed account's
memberships are filtered to the caller's owned slugs, again except for root.
*/
func (service *Service) Load(context stdctx.Context, sessionID string) (*LoadResult, error) {
	caller, err := service.identify(context, sessionID)
	if err != nil {
		return nil, err
	}

	return service.loadView(context, caller)
}

func (service *Service) loadView(context stdctx.Context, caller *identity) (*LoadResult, error) {
	isRoot := caller.isAdministrator()

	var ownedGroups []*group.Group
	var visibleSlugs []string
	if isRoot {
		ownedGroups = caller.graph.AllGroups(true)
		visibleSlugs = slice.Map(ownedGroups, func(entry *group.Group) string { return entry.Slug })
	} else {
		ownedGroups = caller.graph.OwnedGroups(caller.permissions, false)
		visibleSlugs = caller.ownedSlugs
	}

	accounts, err := service.users.FindInGroups(context, visibleSlugs)
	if err != nil {
		return nil, err
	}

	users := make([]LoadUser, 0, len(accounts))
	for _, account := range accounts {
		memberships := slice.Filter(account.Groups, func(slug string) bool {
			return slices.Contains(visibleSlugs, slug)
		})
		users = append(users, LoadUser{
			Email:    account.Email,
			Name:     account.Name,
			Password: account.HasPassword(),
			Google:   account.HasGoogle(),
			Picture:  pictureOf(account),
			Groups:   memberships,
		})
	}

	return &LoadResult{
		Type:        "load",
		OwnedGroups: ownedGroups,
		Users:       users,
	}, nil
}

/*
SetUser grants and revokes group memberships on a target account, creating it
if absent.

Authorization: the caller must own at least one group, every requested slug
must be inside the caller's owned set, and the invite template (when given)
must be one of the dispatchable ones. All three failures are the same
uniform "not-authorized", so neither group existence nor template slugs can
be probed.

Revocation is scoped: memberships in the caller's owned groups that are
absent from the request are removed; memberships outside the caller's reach
are never touched.

Returns:
  - *LoadResult: The caller's refreshed administered view
*/
func (service *Service) SetUser(context stdctx.Context, sessionID, email, name string, groups []string, sendEmail, redirect string) (*LoadResult, error) {
	caller, err := service.identify(context, sessionID)
	if err != nil {
		return nil, err
	}

	if len(caller.ownedSlugs) == 0 {
		return nil, apperr.NotAuthorized()
	}
	for _, slug := range groups {
		if !slices.Contains(caller.ownedSlugs, slug) {
			return nil, apperr.NotAuthorized()
		}
	}
	if sendEmail != "" && !slices.Contains(invitableTemplates, sendEmail) {
		return nil, apperr.NotAuthorized()
	}

	normalized := user.NormalizeEmail(email)

	target, err := service.users.FindByEmail(context, normalized)
	if apperr.IsNotFound(err) {
		target = &user.User{
			Email:  normalized,
			Name:   name,
			Groups: []string{},
		}
	} else if err != nil {
		return nil, err
	}

	// Revoke within reach, then grant.
	kept := slice.Filter(target.Groups, func(slug string) bool {
		return !slices.Contains(caller.ownedSlugs, slug) || slices.Contains(groups, slug)
	})
	target.Groups = slice.Unique(append(kept, groups...))

	if err := service.users.Save(context, target); err != nil {
		return nil, err
	}

	if sendEmail != "" {
		err := service.createAndMailLink(context, sendEmail, &link.Link{
			Email:    target.Email,
			Name:     target.Name,
			Redirect: redirect,
		})
		if err != nil {
			return nil, err
		}
	}

	service.logger.InfoContext(context, "user_groups_set",
		slog.String("caller", caller.user.Email),
		slog.String("target", target.Email),
		slog.Int("groups", len(groups)),
	)

	return service.loadView(context, caller)
}

/*
SetGroups bulk upserts and soft-deletes groups.

Only root callers may reshape the graph; everyone else gets the uniform
"not-authorized".

Returns:
  - *LoadResult: The caller's refreshed administered view
*/
func (service *Service) SetGroups(context stdctx.Context, sessionID string, groups []*group.Group) (*LoadResult, error) {
	caller, err := service.identify(context, sessionID)
	if err != nil {
		return nil, err
	}

	if !caller.isAdministrator() {
		return nil, apperr.NotAuthorized()
	}

	if err := service.groups.SaveAll(context, groups); err != nil {
		return nil, err
	}

	// Re-resolve against the reshaped graph before rendering the view.
	refreshed, err := service.resolve(context, caller.user)
	if err != nil {
		return nil, err
	}

	return service.loadView(context, refreshed)
}
