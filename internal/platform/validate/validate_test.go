// Copyright (c) 2026 SignOn. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/signon/internal/platform/apperr"
)

func TestValidatorPassesCleanInput(t *testing.T) {
	validator := &Validator{}
	err := validator.
		Required("email", "user@example.com").
		Email("email", "user@example.com").
		Slug("slug", "eng-be").
		OneOf("status", "active", "active", "deleted").
		Err()

	assert.NoError(t, err)
	assert.False(t, validator.HasErrors())
}

func TestValidatorCollectsAllFailures(t *testing.T) {
	validator := &Validator{}
	err := validator.
		Required("email", "  ").
		Email("email", "not-an-address").
		Slug("slug", "Not A Slug").
		Err()

	require.Error(t, err)

	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, "missing-fields", appError.Message)
	assert.Len(t, appError.Fields, 3)
}

func TestEmailRuleIsDeliberatelyLoose(t *testing.T) {
	validator := &Validator{}
	// Unusual but routable addresses must pass; the link round trip is the
	// real deliverability check.
	assert.NoError(t, validator.Email("email", `"odd name"@example`).Err())
}

func TestSlugRule(t *testing.T) {
	for slug, valid := range map[string]bool{
		"eng":       true,
		"eng-be-2":  true,
		"-eng":      false,
		"eng-":      false,
		"Eng":       false,
		"eng--be":   false,
		"":          false,
		"eng be":    false,
	} {
		validator := &Validator{}
		err := validator.Slug("slug", slug).Err()
		if valid {
			assert.NoError(t, err, "slug %q", slug)
		} else {
			assert.Error(t, err, "slug %q", slug)
		}
	}
}

func TestMaxLenCountsRunes(t *testing.T) {
	validator := &Validator{}
	assert.NoError(t, validator.MaxLen("name", "五文字の名", 5).Err())

	validator = &Validator{}
	assert.Error(t, validator.MaxLen("name", "六文字の名前", 5).Err())
}

func TestCustomRule(t *testing.T) {
	validator := &Validator{}
	err := validator.Custom("groups", true, "Must be an array of group slugs").Err()

	require.Error(t, err)
	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, "groups", appError.Fields[0].Field)
}
