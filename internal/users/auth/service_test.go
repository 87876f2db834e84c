// Copyright (c) 2026 SignOn. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	stdctx "context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"io"
	"log/slog"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/signon/internal/core/group"
	"github.com/taibuivan/signon/internal/platform/apperr"
	"github.com/taibuivan/signon/internal/platform/mail"
	"github.com/taibuivan/signon/internal/platform/oauth"
	"github.com/taibuivan/signon/internal/platform/sec"
	"github.com/taibuivan/signon/internal/users/link"
	"github.com/taibuivan/signon/internal/users/session"
	"github.com/taibuivan/signon/internal/users/user"
)

// # In-Memory Fakes

type fakeUsers struct {
	byEmail map[string]*user.User
}

func (fake *fakeUsers) FindByEmail(_ stdctx.Context, email string) (*user.User, error) {
	if entry, ok := fake.byEmail[user.NormalizeEmail(email)]; ok {
		copied := *entry
		return &copied, nil
	}
	return nil, apperr.NotFound()
}

func (fake *fakeUsers) Save(_ stdctx.Context, entry *user.User) error {
	copied := *entry
	copied.Email = user.NormalizeEmail(entry.Email)
	fake.byEmail[copied.Email] = &copied
	return nil
}

func (fake *fakeUsers) FindInGroups(_ stdctx.Context, slugs []string) ([]*user.User, error) {
	var matches []*user.User
	for _, entry := range fake.byEmail {
		for _, slug := range entry.Groups {
			if slices.Contains(slugs, slug) {
				copied := *entry
				matches = append(matches, &copied)
				break
			}
		}
	}
	return matches, nil
}

type fakeLinks struct {
	byID map[string]*link.Link
}

func (fake *fakeLinks) Create(_ stdctx.Context, entry *link.Link) error {
	copied := *entry
	fake.byID[entry.ID] = &copied
	return nil
}

func (fake *fakeLinks) Consume(_ stdctx.Context, id string) (*link.Link, error) {
	entry, ok := fake.byID[id]
	if !ok || entry.Expired != nil {
		return nil, apperr.LinkExpired()
	}
	expiredAt := time.Now()
	entry.Expired = &expiredAt
	copied := *entry
	return &copied, nil
}

type fakeSessionRepo struct {
	byID map[string]*session.Session
}

func (fake *fakeSessionRepo) CreateOrReuse(_ stdctx.Context, email string, id string) (*session.Session, error) {
	normalized := user.NormalizeEmail(email)
	for _, entry := range fake.byID {
		if entry.UserEmail == normalized && entry.IsLive() {
			copied := *entry
			return &copied, nil
		}
	}
	entry := &session.Session{ID: id, UserEmail: normalized, Created: time.Now()}
	fake.byID[id] = entry
	copied := *entry
	return &copied, nil
}

func (fake *fakeSessionRepo) FindByID(_ stdctx.Context, id string) (*session.Session, error) {
	if entry, ok := fake.byID[id]; ok {
		copied := *entry
		return &copied, nil
	}
	return nil, apperr.NotFound()
}

func (fake *fakeSessionRepo) ExpireAll(_ stdctx.Context, email string) ([]string, error) {
	normalized := user.NormalizeEmail(email)
	var ids []string
	for _, entry := range fake.byID {
		if entry.UserEmail == normalized && entry.IsLive() {
			expiredAt := time.Now()
			entry.Expired = &expiredAt
			ids = append(ids, entry.ID)
		}
	}
	return ids, nil
}

type fakeGroupRepo struct {
	bySlug map[string]*group.Group
}

func (fake *fakeGroupRepo) FindAllActive(_ stdctx.Context) ([]*group.Group, error) {
	var groups []*group.Group
	for _, entry := range fake.bySlug {
		if entry.IsActive() {
			copied := *entry
			groups = append(groups, &copied)
		}
	}
	return groups, nil
}

func (fake *fakeGroupRepo) Save(_ stdctx.Context, entry *group.Group) error {
	copied := *entry
	fake.bySlug[entry.Slug] = &copied
	return nil
}

type fakeTemplates struct{}

func (fakeTemplates) FindBySlug(_ stdctx.Context, slug string) (*mail.Template, error) {
	return &mail.Template{
		Slug:    slug,
		Subject: slug,
		Text:    "Sign in by going to $linkURL",
		HTML:    `Sign in by going to <a href="$linkURL">$linkURL</a>`,
	}, nil
}

type sentMail struct {
	to      string
	subject string
	text    string
}

type fakeSender struct {
	sent []sentMail
}

func (fake *fakeSender) Send(_ stdctx.Context, to, subject, text, _ string) error {
	fake.sent = append(fake.sent, sentMail{to: to, subject: subject, text: text})
	return nil
}

type fakeStates struct {
	byNonce map[string]string
}

func (fake *fakeStates) Issue(_ stdctx.Context, redirect string) (string, error) {
	nonce, err := sec.GenerateSecureToken(8)
	if err != nil {
		return "", err
	}
	fake.byNonce[nonce] = redirect
	return nonce, nil
}

func (fake *fakeStates) Redeem(_ stdctx.Context, nonce string) (string, error) {
	redirect, ok := fake.byNonce[nonce]
	if !ok {
		return "", ErrStateUnknown
	}
	delete(fake.byNonce, nonce)
	return redirect, nil
}

type fakeGoogle struct {
	profile     *oauth.Profile
	exchangeErr error
	profileErr  error
}

func (fake *fakeGoogle) ConsentURL(state string) string {
	return "https://accounts.google.test/consent?state=" + state
}

func (fake *fakeGoogle) ExchangeCode(_ stdctx.Context, _ string) (string, error) {
	if fake.exchangeErr != nil {
		return "", fake.exchangeErr
	}
	return "access-token", nil
}

func (fake *fakeGoogle) FetchProfile(_ stdctx.Context, _ string) (*oauth.Profile, error) {
	if fake.profileErr != nil {
		return nil, fake.profileErr
	}
	return fake.profile, nil
}

// # Harness

type harness struct {
	service   *Service
	users     *fakeUsers
	links     *fakeLinks
	sessions  *fakeSessionRepo
	groups    *fakeGroupRepo
	sender    *fakeSender
	google    *fakeGoogle
	publicPEM string
}

func hashOf(t *testing.T, password string) *string {
	t.Helper()
	hash, err := sec.HashPassword(password)
	require.NoError(t, err)
	return &hash
}

func newHarness(t *testing.T, signInDelay time.Duration) *harness {
	t.Helper()

	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	privateDER, err := x509.MarshalPKCS8PrivateKey(privateKey)
	require.NoError(t, err)
	privatePEM := string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privateDER}))

	publicDER, err := x509.MarshalPKIXPublicKey(&privateKey.PublicKey)
	require.NoError(t, err)
	publicPEM := string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: publicDER}))

	issuer, err := sec.NewTokenIssuer(privatePEM, "signon-test", time.Hour)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	users := &fakeUsers{byEmail: map[string]*user.User{}}
	links := &fakeLinks{byID: map[string]*link.Link{}}
	sessions := &fakeSessionRepo{byID: map[string]*session.Session{}}
	groups := &fakeGroupRepo{bySlug: map[string]*group.Group{}}
	sender := &fakeSender{}
	google := &fakeGoogle{}

	service := NewService(
		users,
		links,
		session.NewManager(sessions),
		group.NewService(groups, logger),
		mail.NewService(fakeTemplates{}, sender, logger),
		google,
		&fakeStates{byNonce: map[string]string{}},
		issuer,
		"https://sso.example.test",
		`{"keys":[]}`,
		signInDelay,
		logger,
	)

	return &harness{
		service:   service,
		users:     users,
		links:     links,
		sessions:  sessions,
		groups:    groups,
		sender:    sender,
		google:    google,
		publicPEM: publicPEM,
	}
}

func (h *harness) seedEngineering(t *testing.T) {
	t.Helper()
	ctx := stdctx.Background()
	require.NoError(t, h.groups.Save(ctx, &group.Group{
		Slug: "eng", Name: "Engineering", Owner: "manage-eng",
		Permissions: []string{"read"}, Status: group.StatusActive,
	}))
	parent := "eng"
	require.NoError(t, h.groups.Save(ctx, &group.Group{
		Slug: "eng-be", Name: "Backend", Owner: "manage-eng-be",
		Permissions: []string{"deploy"}, Parent: &parent, Status: group.StatusActive,
	}))
}

// # Password Flow

func TestSignInSuccess(t *testing.T) {
	h := newHarness(t, 0)
	h.seedEngineering(t)
	ctx := stdctx.Background()

	require.NoError(t, h.users.Save(ctx, &user.User{
		Email: "Dev@Example.com", Name: "Dev",
		Groups:       []string{"eng"},
		PasswordHash: hashOf(t, "hunter2!"),
	}))

	result, liveSession, err := h.service.SignIn(ctx, "dev@example.com", "hunter2!")
	require.NoError(t, err)
	require.NotNil(t, liveSession)

	assert.Equal(t, "sign-in", result.Type)
	assert.Equal(t, "dev@example.com", result.Email)
	assert.Equal(t, []string{"deploy", "read"}, result.Permissions)
	assert.True(t, result.Password)
	assert.False(t, result.Google)

	claims, err := sec.ParseClaims(result.Token, h.publicPEM)
	require.NoError(t, err)
	assert.Equal(t, "dev@example.com", claims.Email)
	assert.Equal(t, []string{"deploy", "read"}, claims.Permissions)
}

func TestSignInWrongCredentialsAreUniform(t *testing.T) {
	h := newHarness(t, 30*time.Millisecond)
	ctx := stdctx.Background()

	require.NoError(t, h.users.Save(ctx, &user.User{
		Email: "dev@example.com", PasswordHash: hashOf(t, "right"),
	}))

	// Unknown account and wrong password produce the same error, and both
	// take at least the configured floor.
	for _, attempt := range []struct{ email, password string }{
		{"nobody@example.com", "whatever"},
		{"dev@example.com", "wrong"},
	} {
		startTime := time.Now()
		_, _, err := h.service.SignIn(ctx, attempt.email, attempt.password)
		elapsed := time.Since(startTime)

		appError := apperr.As(err)
		require.NotNil(t, appError)
		assert.Equal(t, "wrong-credentials", appError.Message)
		assert.GreaterOrEqual(t, elapsed, 30*time.Millisecond)
	}
}

func TestSignInReusesLiveSession(t *testing.T) {
	h := newHarness(t, 0)
	ctx := stdctx.Background()

	require.NoError(t, h.users.Save(ctx, &user.User{
		Email: "dev@example.com", PasswordHash: hashOf(t, "hunter2!"),
	}))

	_, first, err := h.service.SignIn(ctx, "dev@example.com", "hunter2!")
	require.NoError(t, err)

	_, second, err := h.service.SignIn(ctx, "dev@example.com", "hunter2!")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
}

func TestSignInPasswordlessAccountRejectsPassword(t *testing.T) {
	h := newHarness(t, 0)
	ctx := stdctx.Background()

	require.NoError(t, h.users.Save(ctx, &user.User{Email: "dev@example.com"}))

	_, _, err := h.service.SignIn(ctx, "dev@example.com", "")
	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, "wrong-credentials", appError.Message)
}

// # Sign-Up and Links

func TestSignUpThenConsumeLink(t *testing.T) {
	h := newHarness(t, 0)
	ctx := stdctx.Background()

	err := h.service.SignUp(ctx, "New@Example.com", "hunter2!", "https://app.example.test/home", "New User")
	require.NoError(t, err)

	// No account yet: the link is the pending claim.
	_, err = h.users.FindByEmail(ctx, "new@example.com")
	assert.True(t, apperr.IsNotFound(err))

	require.Len(t, h.sender.sent, 1)
	assert.Equal(t, "sign-up", h.sender.sent[0].subject)
	assert.Equal(t, "new@example.com", h.sender.sent[0].to)
	assert.Contains(t, h.sender.sent[0].text, "https://sso.example.test/api/sign-in-link?id=")

	require.Len(t, h.links.byID, 1)
	var linkID string
	for id := range h.links.byID {
		linkID = id
	}

	redirect, liveSession, err := h.service.ConsumeLink(ctx, linkID)
	require.NoError(t, err)
	require.NotNil(t, liveSession)
	assert.Equal(t, "https://app.example.test/home", redirect)

	account, err := h.users.FindByEmail(ctx, "new@example.com")
	require.NoError(t, err)
	assert.Equal(t, "New User", account.Name)
	assert.True(t, account.HasPassword())
	assert.True(t, sec.CheckPasswordHash("hunter2!", *account.PasswordHash))

	// Second consumption is a stale retry.
	_, _, err = h.service.ConsumeLink(ctx, linkID)
	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, "link-expired", appError.Message)
}

func TestSignUpExistingEmailDegradesToForgotPassword(t *testing.T) {
	h := newHarness(t, 0)
	ctx := stdctx.Background()

	require.NoError(t, h.users.Save(ctx, &user.User{
		Email: "dev@example.com", Name: "Dev", PasswordHash: hashOf(t, "original"),
	}))

	err := h.service.SignUp(ctx, "dev@example.com", "attacker-chosen", "https://app.example.test", "")
	require.NoError(t, err)

	// The forgot-password template went out, and the pending link carries
	// no password: the existing credential is untouchable through sign-up.
	require.Len(t, h.sender.sent, 1)
	assert.Equal(t, "forgot-password", h.sender.sent[0].subject)

	for _, pending := range h.links.byID {
		assert.Nil(t, pending.PasswordHash)
	}
}

func TestSignUpEmptyPasswordIsInsecure(t *testing.T) {
	h := newHarness(t, 0)

	err := h.service.SignUp(stdctx.Background(), "new@example.com", "", "https://app.example.test", "")
	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, "password-insecure", appError.Message)
}

func TestForgotPasswordUnknownEmailIsSilent(t *testing.T) {
	h := newHarness(t, 0)

	err := h.service.ForgotPassword(stdctx.Background(), "nobody@example.com", "https://app.example.test")
	require.NoError(t, err)
	assert.Empty(t, h.sender.sent)
	assert.Empty(t, h.links.byID)
}

// # Sessions

func TestAutoSignInLifecycle(t *testing.T) {
	h := newHarness(t, 0)
	ctx := stdctx.Background()

	require.NoError(t, h.users.Save(ctx, &user.User{
		Email: "dev@example.com", PasswordHash: hashOf(t, "hunter2!"),
	}))

	// Anonymous probe: null, not an error.
	result, err := h.service.AutoSignIn(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, result)

	_, liveSession, err := h.service.SignIn(ctx, "dev@example.com", "hunter2!")
	require.NoError(t, err)

	result, err = h.service.AutoSignIn(ctx, liveSession.ID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "dev@example.com", result.Email)
	assert.NotEmpty(t, result.Token)

	require.NoError(t, h.service.SignOut(ctx, liveSession.ID))

	result, err = h.service.AutoSignIn(ctx, liveSession.ID)
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestAutoSignInSessionOfDeletedUser(t *testing.T) {
	h := newHarness(t, 0)
	ctx := stdctx.Background()

	require.NoError(t, h.users.Save(ctx, &user.User{
		Email: "dev@example.com", PasswordHash: hashOf(t, "hunter2!"),
	}))
	_, liveSession, err := h.service.SignIn(ctx, "dev@example.com", "hunter2!")
	require.NoError(t, err)

	delete(h.users.byEmail, "dev@example.com")

	// A session pointing at a vanished user is anonymous, not a crash.
	result, err := h.service.AutoSignIn(ctx, liveSession.ID)
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestSignOutIsIdempotent(t *testing.T) {
	h := newHarness(t, 0)
	ctx := stdctx.Background()

	assert.NoError(t, h.service.SignOut(ctx, ""))
	assert.NoError(t, h.service.SignOut(ctx, "never-issued"))
}

// # Federated Flow

func TestGoogleSignInMergeKeepsLocalFields(t *testing.T) {
	h := newHarness(t, 0)
	ctx := stdctx.Background()

	picture := "https://local.example.test/avatar.png"
	require.NoError(t, h.users.Save(ctx, &user.User{
		Email: "dev@example.com", Name: "Local Name",
		Picture: &picture, PasswordHash: hashOf(t, "hunter2!"),
	}))

	h.google.profile = &oauth.Profile{
		ID: "google-subject-1", Email: "Dev@Example.com",
		Name: "Federated Name", Picture: "https://google.test/photo.jpg",
	}

	nonce, err := h.service.states.Issue(ctx, "https://app.example.test/after")
	require.NoError(t, err)

	redirect, liveSession, err := h.service.GoogleSignIn(ctx, "auth-code", nonce)
	require.NoError(t, err)
	require.NotNil(t, liveSession)
	assert.Equal(t, "https://app.example.test/after", redirect)

	account, err := h.users.FindByEmail(ctx, "dev@example.com")
	require.NoError(t, err)

	// Local fields win; the federated identity only fills blanks.
	assert.Equal(t, "Local Name", account.Name)
	assert.Equal(t, picture, *account.Picture)
	assert.True(t, account.HasPassword())
	require.NotNil(t, account.GoogleID)
	assert.Equal(t, "google-subject-1", *account.GoogleID)
}

func TestGoogleSignInCreatesMissingAccount(t *testing.T) {
	h := newHarness(t, 0)
	ctx := stdctx.Background()

	h.google.profile = &oauth.Profile{
		ID: "google-subject-2", Email: "fresh@example.com",
		Name: "Fresh", Picture: "https://google.test/fresh.jpg",
	}

	nonce, err := h.service.states.Issue(ctx, "https://app.example.test")
	require.NoError(t, err)

	_, liveSession, err := h.service.GoogleSignIn(ctx, "auth-code", nonce)
	require.NoError(t, err)
	require.NotNil(t, liveSession)

	account, err := h.users.FindByEmail(ctx, "fresh@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Fresh", account.Name)
	assert.True(t, account.HasGoogle())
	assert.False(t, account.HasPassword())
}

func TestGoogleSignInExchangeFailureKeepsRedirect(t *testing.T) {
	h := newHarness(t, 0)
	ctx := stdctx.Background()

	h.google.exchangeErr = oauth.ErrTokenExchange

	nonce, err := h.service.states.Issue(ctx, "https://app.example.test/after")
	require.NoError(t, err)

	redirect, liveSession, err := h.service.GoogleSignIn(ctx, "bad-code", nonce)
	assert.ErrorIs(t, err, oauth.ErrTokenExchange)
	assert.Nil(t, liveSession)
	// The handler needs the redirect to carry the error marker back.
	assert.Equal(t, "https://app.example.test/after", redirect)
}

func TestGoogleSignInUnknownState(t *testing.T) {
	h := newHarness(t, 0)

	_, _, err := h.service.GoogleSignIn(stdctx.Background(), "code", "forged-state")
	assert.ErrorIs(t, err, ErrStateUnknown)
}

// # Administration

func adminHarness(t *testing.T) (*harness, string) {
	t.Helper()
	h := newHarness(t, 0)
	h.seedEngineering(t)
	ctx := stdctx.Background()

	require.NoError(t, h.groups.Save(ctx, &group.Group{
		Slug: "root", Name: "Root", Owner: "administrator",
		Permissions: []string{"administrator"}, Status: group.StatusActive,
	}))
	require.NoError(t, h.users.Save(ctx, &user.User{
		Email: "root@example.com", Name: "Root",
		Groups: []string{"root"}, PasswordHash: hashOf(t, "rootpass"),
	}))
	require.NoError(t, h.users.Save(ctx, &user.User{
		Email: "manager@example.com", Name: "Manager",
		Groups: []string{"managers"}, PasswordHash: hashOf(t, "managerpass"),
	}))
	require.NoError(t, h.groups.Save(ctx, &group.Group{
		Slug: "managers", Name: "Managers", Owner: "head-of-people",
		Permissions: []string{"manage-eng"}, Status: group.StatusActive,
	}))

	_, managerSession, err := h.service.SignIn(ctx, "manager@example.com", "managerpass")
	require.NoError(t, err)

	return h, managerSession.ID
}

func TestSetUserGrantsAndRevokesWithinOwnedGroups(t *testing.T) {
	h, managerSessionID := adminHarness(t)
	ctx := stdctx.Background()

	require.NoError(t, h.users.Save(ctx, &user.User{
		Email: "dev@example.com", Name: "Dev",
		Groups: []string{"eng", "sales"},
	}))

	// Manager owns eng and eng-be. The request keeps eng-be only: eng is
	// revoked, sales is out of reach and survives.
	result, err := h.service.SetUser(ctx, managerSessionID, "dev@example.com", "Dev", []string{"eng-be"}, "", "")
	require.NoError(t, err)
	assert.Equal(t, "load", result.Type)

	account, err := h.users.FindByEmail(ctx, "dev@example.com")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"sales", "eng-be"}, account.Groups)
}

func TestSetUserOutsideOwnedGroupsIsNotAuthorized(t *testing.T) {
	h, managerSessionID := adminHarness(t)
	ctx := stdctx.Background()

	_, err := h.service.SetUser(ctx, managerSessionID, "dev@example.com", "Dev", []string{"sales"}, "", "")
	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, "not-authorized", appError.Message)
}

func TestSetUserWithoutOwnershipIsNotAuthorized(t *testing.T) {
	h, _ := adminHarness(t)
	ctx := stdctx.Background()

	require.NoError(t, h.users.Save(ctx, &user.User{
		Email: "plain@example.com", Groups: []string{"eng"}, PasswordHash: hashOf(t, "plainpass"),
	}))
	_, plainSession, err := h.service.SignIn(ctx, "plain@example.com", "plainpass")
	require.NoError(t, err)

	_, err = h.service.SetUser(ctx, plainSession.ID, "dev@example.com", "Dev", []string{}, "", "")
	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, "not-authorized", appError.Message)
}

func TestSetUserCreatesTargetAndSendsInvite(t *testing.T) {
	h, managerSessionID := adminHarness(t)
	ctx := stdctx.Background()

	_, err := h.service.SetUser(ctx, managerSessionID, "Invitee@Example.com", "Invitee",
		[]string{"eng"}, "welcome", "https://app.example.test")
	require.NoError(t, err)

	account, err := h.users.FindByEmail(ctx, "invitee@example.com")
	require.NoError(t, err)
	assert.Equal(t, []string{"eng"}, account.Groups)

	require.Len(t, h.sender.sent, 1)
	assert.Equal(t, "welcome", h.sender.sent[0].subject)
	assert.Equal(t, "invitee@example.com", h.sender.sent[0].to)
}

func TestSetUserRejectsArbitraryTemplates(t *testing.T) {
	h, managerSessionID := adminHarness(t)

	_, err := h.service.SetUser(stdctx.Background(), managerSessionID, "dev@example.com", "Dev",
		[]string{"eng"}, "sign-up", "https://app.example.test")
	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, "not-authorized", appError.Message)
}

func TestSetGroupsRequiresAdministrator(t *testing.T) {
	h, managerSessionID := adminHarness(t)

	_, err := h.service.SetGroups(stdctx.Background(), managerSessionID, []*group.Group{
		{Slug: "new-team", Name: "New Team", Owner: "manage-new-team", Status: group.StatusActive},
	})
	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, "not-authorized", appError.Message)
}

func TestSetGroupsAsAdministrator(t *testing.T) {
	h, _ := adminHarness(t)
	ctx := stdctx.Background()

	_, rootSession, err := h.service.SignIn(ctx, "root@example.com", "rootpass")
	require.NoError(t, err)

	result, err := h.service.SetGroups(ctx, rootSession.ID, []*group.Group{
		{Slug: "new-team", Name: "New Team", Owner: "manage-new-team", Permissions: []string{"ship"}, Status: group.StatusActive},
		{Slug: "managers", Name: "Managers", Owner: "head-of-people", Status: group.StatusDeleted},
	})
	require.NoError(t, err)

	// Root sees every active group, permission grants included.
	var slugs []string
	sawPermissions := false
	for _, entry := range result.OwnedGroups {
		slugs = append(slugs, entry.Slug)
		if len(entry.Permissions) > 0 {
			sawPermissions = true
		}
	}
	assert.Contains(t, slugs, "new-team")
	assert.NotContains(t, slugs, "managers")
	assert.True(t, sawPermissions)
}

func TestSetGroupsRejectsParentCycle(t *testing.T) {
	h, _ := adminHarness(t)
	ctx := stdctx.Background()

	_, rootSession, err := h.service.SignIn(ctx, "root@example.com", "rootpass")
	require.NoError(t, err)

	parent := "eng-be"
	_, err = h.service.SetGroups(ctx, rootSession.ID, []*group.Group{
		{Slug: "eng", Name: "Engineering", Owner: "manage-eng", Parent: &parent, Status: group.StatusActive},
	})
	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, "missing-fields", appError.Message)
}

func TestLoadFiltersToOwnedView(t *testing.T) {
	h, managerSessionID := adminHarness(t)
	ctx := stdctx.Background()

	require.NoError(t, h.users.Save(ctx, &user.User{
		Email: "dev@example.com", Name: "Dev", Groups: []string{"eng", "sales"},
	}))

	result, err := h.service.Load(ctx, managerSessionID)
	require.NoError(t, err)

	// Owned groups come back stripped of their permission grants.
	var ownedSlugs []string
	for _, entry := range result.OwnedGroups {
		ownedSlugs = append(ownedSlugs, entry.Slug)
		assert.Nil(t, entry.Permissions)
	}
	assert.ElementsMatch(t, []string{"eng", "eng-be"}, ownedSlugs)

	// Out-of-reach memberships are invisible.
	require.Len(t, result.Users, 1)
	assert.Equal(t, "dev@example.com", result.Users[0].Email)
	assert.Equal(t, []string{"eng"}, result.Users[0].Groups)
}

func TestLoadAnonymousIsNotSignedIn(t *testing.T) {
	h := newHarness(t, 0)

	_, err := h.service.Load(stdctx.Background(), "")
	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, "not-signed-in", appError.Message)
}

// # Self-Update

func TestSetMeUpdatesNameAndPassword(t *testing.T) {
	h := newHarness(t, 0)
	ctx := stdctx.Background()

	require.NoError(t, h.users.Save(ctx, &user.User{
		Email: "dev@example.com", Name: "Old Name", PasswordHash: hashOf(t, "oldpass"),
	}))
	_, liveSession, err := h.service.SignIn(ctx, "dev@example.com", "oldpass")
	require.NoError(t, err)

	newName := "New Name"
	newPassword := "newpass!"
	result, err := h.service.SetMe(ctx, liveSession.ID, &newName, &newPassword)
	require.NoError(t, err)
	assert.Equal(t, "New Name", result.Name)

	account, err := h.users.FindByEmail(ctx, "dev@example.com")
	require.NoError(t, err)
	assert.True(t, sec.CheckPasswordHash("newpass!", *account.PasswordHash))
	assert.False(t, sec.CheckPasswordHash("oldpass", *account.PasswordHash))
}

func TestSetMeEmptyPasswordIsInsecure(t *testing.T) {
	h := newHarness(t, 0)
	ctx := stdctx.Background()

	require.NoError(t, h.users.Save(ctx, &user.User{
		Email: "dev@example.com", PasswordHash: hashOf(t, "oldpass"),
	}))
	_, liveSession, err := h.service.SignIn(ctx, "dev@example.com", "oldpass")
	require.NoError(t, err)

	empty := ""
	_, err = h.service.SetMe(ctx, liveSession.ID, nil, &empty)
	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, "password-insecure", appError.Message)
}

func TestSetMeRequiresSession(t *testing.T) {
	h := newHarness(t, 0)

	name := "Anyone"
	_, err := h.service.SetMe(stdctx.Background(), "", &name, nil)
	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, "not-signed-in", appError.Message)
}

// # Email Normalization

func TestEmailsAreLowerCasedEverywhere(t *testing.T) {
	h := newHarness(t, 0)
	ctx := stdctx.Background()

	require.NoError(t, h.service.SignUp(ctx, "MiXeD@Example.COM", "hunter2!", "https://app.example.test", "Mixed"))

	var linkID string
	for id, pending := range h.links.byID {
		linkID = id
		assert.Equal(t, "mixed@example.com", pending.Email)
	}

	_, _, err := h.service.ConsumeLink(ctx, linkID)
	require.NoError(t, err)

	_, ok := h.users.byEmail["mixed@example.com"]
	assert.True(t, ok)

	// Variant casing signs in to the same account, not a duplicate.
	result, _, err := h.service.SignIn(ctx, "MIXED@example.com", "hunter2!")
	require.NoError(t, err)
	assert.Equal(t, "mixed@example.com", result.Email)
	assert.Len(t, h.users.byEmail, 1)
	assert.False(t, strings.ContainsAny(result.Email, "ABCDEFGHIJKLMNOPQRSTUVWXYZ"))
}
