// Copyright (c) 2026 SignOn. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth is the flow orchestrator behind every entry point.

It unifies three authentication modes (password, federated Google sign-in,
single-use mailed links) into one session-and-token model: whichever door a
user comes through, the outcome is the same live session, the same signed
claims token, and the same permission resolution.

Every authenticated operation re-resolves the session cookie down to the user
it points to. A session's mere existence is never trusted: a session whose
user has vanished behaves exactly like no session at all.
*/
package auth

import (
	stdctx "context"
	"log/slog"
	"net/url"
	"slices"
	"time"

	"github.com/taibuivan/signon/internal/core/group"
	"github.com/taibuivan/signon/internal/platform/apperr"
	"github.com/taibuivan/signon/internal/platform/constants"
	"github.com/taibuivan/signon/internal/platform/mail"
	"github.com/taibuivan/signon/internal/platform/oauth"
	"github.com/taibuivan/signon/internal/platform/sec"
	"github.com/taibuivan/signon/internal/users/link"
	"github.com/taibuivan/signon/internal/users/session"
	"github.com/taibuivan/signon/internal/users/user"
)

// SignInResult is the tagged "sign-in" payload: the caller's identity, their
// resolved permissions, and a freshly issued claims token.
type SignInResult struct {
	Type        string   `json:"type"`
	Token       string   `json:"token,omitempty"`
	Permissions []string `json:"permissions"`
	Email       string   `json:"email"`
	Name        string   `json:"name"`
	Picture     string   `json:"picture"`
	Password    bool     `json:"password"`
	Google      bool     `json:"google"`
}

// LoadResult is the tagged "load" payload: the caller's administered view.
type LoadResult struct {
	Type        string         `json:"type"`
	OwnedGroups []*group.Group `json:"ownedGroups"`
	Users       []LoadUser     `json:"users"`
}

// LoadUser is the administered view of an account. Memberships outside the
// caller's owned groups are filtered out unless the caller is root.
type LoadUser struct {
	Email    string   `json:"email"`
	Name     string   `json:"name"`
	Password bool     `json:"password"`
	Google   bool     `json:"google"`
	Picture  string   `json:"picture"`
	Groups   []string `json:"groups"`
}

// identity is the fully resolved caller: the user, the group graph at
// resolution time, and the derived permission and ownership sets.
type identity struct {
	user        *user.User
	graph       *group.Graph
	permissions []string
	ownedSlugs  []string
}

func (caller *identity) isAdministrator() bool {
	return slices.Contains(caller.permissions, constants.PermissionAdministrator)
}

// GoogleProvider is the federated identity contract, satisfied by
// [oauth.GoogleClient].
type GoogleProvider interface {
	ConsentURL(state string) string
	ExchangeCode(context stdctx.Context, code string) (string, error)
	FetchProfile(context stdctx.Context, accessToken string) (*oauth.Profile, error)
}

// StateRepository holds pending federated sign-in state, satisfied by
// [StateStore].
type StateRepository interface {
	Issue(context stdctx.Context, redirect string) (string, error)
	Redeem(context stdctx.Context, nonce string) (string, error)
}

// Service orchestrates the authentication and administration flows.
type Service struct {
	users    user.Repository
	links    link.Repository
	sessions *session.Manager
	groups   *group.Service
	mailer   *mail.Service
	google   GoogleProvider
	states   StateRepository
	tokens   *sec.TokenIssuer

	apiURL      string
	publicKey   string
	signInDelay time.Duration
	logger      *slog.Logger
}

// NewService wires the orchestrator. The publicKey is the JWK set document
// from the configuration snapshot, served verbatim.
func NewService(
	users user.Repository,
	links link.Repository,
	sessions *session.Manager,
	groups *group.Service,
	mailer *mail.Service,
	google GoogleProvider,
	states StateRepository,
	tokens *sec.TokenIssuer,
	apiURL string,
	publicKey string,
	signInDelay time.Duration,
	logger *slog.Logger,
) *Service {
	return &Service{
		users:       users,
		links:       links,
		sessions:    sessions,
		groups:      groups,
		mailer:      mailer,
		google:      google,
		states:      states,
		tokens:      tokens,
		apiURL:      apiURL,
		publicKey:   publicKey,
		signInDelay: signInDelay,
		logger:      logger,
	}
}

// PublicKey returns the published verification key document.
func (service *Service) PublicKey() string { return service.publicKey }

// # Identity Resolution

// identify resolves a session id down to a fully resolved caller. Anything
// short of a live session pointing at an existing user is "not-signed-in".
func (service *Service) identify(context stdctx.Context, sessionID string) (*identity, error) {
	if sessionID == "" {
		return nil, apperr.NotSignedIn()
	}

	liveSession, err := service.sessions.Resolve(context, sessionID)
	if err != nil {
		return nil, err
	}

	account, err := service.users.FindByEmail(context, liveSession.UserEmail)
	if apperr.IsNotFound(err) {
		// Session points at a deleted user. Inconsistent, not fatal.
		return nil, apperr.NotSignedIn()
	}
	if err != nil {
		return nil, err
	}

	return service.resolve(context, account)
}

// resolve computes the permission and ownership sets for an account.
func (service *Service) resolve(context stdctx.Context, account *user.User) (*identity, error) {
	graph, err := service.groups.LoadGraph(context)
	if err != nil {
		return nil, err
	}

	permissions := graph.EffectivePermissions(account.Groups)

	return &identity{
		user:        account,
		graph:       graph,
		permissions: permissions,
		ownedSlugs:  graph.OwnedSlugs(permissions),
	}, nil
}

// signInResult issues a fresh claims token for the caller. Tokens are never
// cached or reused across requests.
func (service *Service) signInResult(caller *identity) (*SignInResult, error) {
	account := caller.user

	token, err := service.tokens.Issue(sec.IdentityClaims{
		Type:        "sign-in",
		Email:       account.Email,
		Name:        account.Name,
		Picture:     pictureOf(account),
		Password:    account.HasPassword(),
		Google:      account.HasGoogle(),
		Groups:      account.Groups,
		Permissions: caller.permissions,
	})
	if err != nil {
		return nil, apperr.ServerError(err)
	}

	return &SignInResult{
		Type:        "sign-in",
		Token:       token,
		Permissions: caller.permissions,
		Email:       account.Email,
		Name:        account.Name,
		Picture:     pictureOf(account),
		Password:    account.HasPassword(),
		Google:      account.HasGoogle(),
	}, nil
}

func pictureOf(account *user.User) string {
	if account.Picture == nil {
		return ""
	}
	return *account.Picture
}

// # Password Flows

/*
SignIn verifies a password credential and starts (or resumes) a session.

The response always takes at least the configured delay, pass or fail, so
response timing carries no account-existence signal. An unknown account and a
wrong password are indistinguishable.

Returns:
  - *SignInResult: Identity, permissions and a fresh token
  - *session.Session: The live session to bind to the cookie
*/
func (service *Service) SignIn(context stdctx.Context, email, password string) (*SignInResult, *session.Session, error) {
	startTime := time.Now()
	defer service.flattenTiming(startTime)

	account, err := service.users.FindByEmail(context, email)
	if apperr.IsNotFound(err) {
		return nil, nil, apperr.WrongCredentials()
	}
	if err != nil {
		return nil, nil, err
	}

	if !account.HasPassword() || !sec.CheckPasswordHash(password, *account.PasswordHash) {
		return nil, nil, apperr.WrongCredentials()
	}

	liveSession, err := service.sessions.Start(context, account.Email)
	if err != nil {
		return nil, nil, err
	}

	caller, err := service.resolve(context, account)
	if err != nil {
		return nil, nil, err
	}

	result, err := service.signInResult(caller)
	if err != nil {
		return nil, nil, err
	}

	service.logger.InfoContext(context, "user_signed_in", slog.String("email", account.Email))

	return result, liveSession, nil
}

// flattenTiming pads the elapsed time of a sign-in attempt to the configured
// floor.
func (service *Service) flattenTiming(startTime time.Time) {
	if remaining := service.signInDelay - time.Since(startTime); remaining > 0 {
		time.Sleep(remaining)
	}
}

/*
SignUp parks a pending account behind a mailed single-use link.

An already registered e-mail silently degrades to the forgot-password flow,
so the response never reveals whether an account exists. Only an empty
password is rejected; deliverability of the address is proven by the link
round trip, not by syntax.

Returns:
  - error: "password-insecure" for an empty password, mail failures wrapped
*/
func (service *Service) SignUp(context stdctx.Context, email, password, redirect, name string) error {
	normalized := user.NormalizeEmail(email)

	_, err := service.users.FindByEmail(context, normalized)
	if err == nil {
		return service.ForgotPassword(context, normalized, redirect)
	}
	if !apperr.IsNotFound(err) {
		return err
	}

	if password == "" {
		return apperr.PasswordInsecure()
	}

	passwordHash, err := sec.HashPassword(password)
	if err != nil {
		return apperr.ServerError(err)
	}

	return service.createAndMailLink(context, constants.MailSignUp, &link.Link{
		Email:        normalized,
		Name:         name,
		PasswordHash: &passwordHash,
		Redirect:     redirect,
	})
}

/*
ForgotPassword mails a fresh sign-in link to an existing account.

An unknown e-mail completes silently with the same null result, for the same
enumeration reason as SignUp.
*/
func (service *Service) ForgotPassword(context stdctx.Context, email, redirect string) error {
	account, err := service.users.FindByEmail(context, user.NormalizeEmail(email))
	if apperr.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}

	return service.createAndMailLink(context, constants.MailForgotPassword, &link.Link{
		Email:    account.Email,
		Name:     account.Name,
		Redirect: redirect,
	})
}

// createAndMailLink persists a redeemable link and mails its URL using the
// given template.
func (service *Service) createAndMailLink(context stdctx.Context, template string, pending *link.Link) error {
	id, err := sec.GenerateSecureToken(constants.LinkIDLength)
	if err != nil {
		return apperr.ServerError(err)
	}
	pending.ID = id

	if err := service.links.Create(context, pending); err != nil {
		return err
	}

	linkURL := service.apiURL + "/api/sign-in-link?id=" + url.QueryEscape(id)
	if err := service.mailer.SendTemplate(context, template, pending.Email, linkURL); err != nil {
		return apperr.ServerError(err)
	}

	service.logger.InfoContext(context, "sign_in_link_sent",
		slog.String("template", template),
		slog.String("email", pending.Email),
	)

	return nil
}

/*
ConsumeLink redeems a single-use link: it creates the claimed account if
absent, starts a session, and returns the link's stored redirect.

Consumption is a storage-level compare-and-set, so a link is honored at most
once; the loser of a race gets "link-expired" exactly like a stale retry.

Returns:
  - string: The redirect target for the browser
  - *session.Session: The live session to bind to the cookie
  - error: "link-expired" for consumed or unknown ids
*/
func (service *Service) ConsumeLink(context stdctx.Context, id string) (string, *session.Session, error) {
	consumed, err := service.links.Consume(context, id)
	if err != nil {
		return "", nil, err
	}

	account, err := service.users.FindByEmail(context, consumed.Email)
	if apperr.IsNotFound(err) {
		account = &user.User{
			Email:        consumed.Email,
			Name:         consumed.Name,
			Groups:       []string{},
			PasswordHash: consumed.PasswordHash,
		}
		if err := service.users.Save(context, account); err != nil {
			return "", nil, err
		}
	} else if err != nil {
		return "", nil, err
	}

	liveSession, err := service.sessions.Start(context, account.Email)
	if err != nil {
		return "", nil, err
	}

	service.logger.InfoContext(context, "link_consumed", slog.String("email", account.Email))

	return consumed.Redirect, liveSession, nil
}

// # Federated Flow

// GoogleRedirectURL issues a state nonce carrying the redirect and returns
// the consent screen URL to send the browser to.
func (service *Service) GoogleRedirectURL(context stdctx.Context, redirect string) (string, error) {
	nonce, err := service.states.Issue(context, redirect)
	if err != nil {
		return "", apperr.ServerError(err)
	}

	return service.google.ConsentURL(nonce), nil
}

/*
GoogleSignIn completes the federated callback.

The account is upserted by merging the federated profile into any existing
local record: existing local fields win, federated values only fill blanks.
The federated subject id itself is always adopted.

The redirect is returned even when err is non-nil (once the state nonce has
been redeemed), so the handler can send the browser back with an error marker
instead of failing the navigation.

Returns:
  - string: The redirect target carried by the state nonce
  - *session.Session: The live session, nil on error
  - error: [ErrStateUnknown], [oauth.ErrTokenExchange] or [oauth.ErrUserInfo]
*/
func (service *Service) GoogleSignIn(context stdctx.Context, code, state string) (string, *session.Session, error) {
	redirect, err := service.states.Redeem(context, state)
	if err != nil {
		return "", nil, err
	}

	accessToken, err := service.google.ExchangeCode(context, code)
	if err != nil {
		return redirect, nil, err
	}

	profile, err := service.google.FetchProfile(context, accessToken)
	if err != nil {
		return redirect, nil, err
	}

	account, err := service.mergeFederatedProfile(context, profile)
	if err != nil {
		return redirect, nil, err
	}

	liveSession, err := service.sessions.Start(context, account.Email)
	if err != nil {
		return redirect, nil, err
	}

	service.logger.InfoContext(context, "user_signed_in_google", slog.String("email", account.Email))

	return redirect, liveSession, nil
}

// mergeFederatedProfile upserts the account for a federated profile.
func (service *Service) mergeFederatedProfile(context stdctx.Context, profile *oauth.Profile) (*user.User, error) {
	normalized := user.NormalizeEmail(profile.Email)

	account, err := service.users.FindByEmail(context, normalized)
	if apperr.IsNotFound(err) {
		account = &user.User{
			Email:  normalized,
			Groups: []string{},
		}
	} else if err != nil {
		return nil, err
	}

	account.GoogleID = &profile.ID
	if account.Name == "" {
		account.Name = profile.Name
	}
	if account.Picture == nil && profile.Picture != "" {
		picture := profile.Picture
		account.Picture = &picture
	}

	if err := service.users.Save(context, account); err != nil {
		return nil, err
	}

	return account, nil
}

// # Session Flows

/*
AutoSignIn probes the session cookie.

A missing, unverifiable or dead session is not an error: the caller is simply
anonymous and the result is nil, rendered as a JSON null.
*/
func (service *Service) AutoSignIn(context stdctx.Context, sessionID string) (*SignInResult, error) {
	caller, err := service.identify(context, sessionID)
	if err != nil {
		if apperr.IsNotSignedIn(err) {
			return nil, nil
		}
		return nil, err
	}

	return service.signInResult(caller)
}

// SignOut expires every live session for the caller. An anonymous caller
// signs out successfully into the same state.
func (service *Service) SignOut(context stdctx.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}

	liveSession, err := service.sessions.Resolve(context, sessionID)
	if err != nil {
		if apperr.IsNotSignedIn(err) {
			return nil
		}
		return err
	}

	if err := service.sessions.End(context, liveSession.UserEmail); err != nil {
		return err
	}

	service.logger.InfoContext(context, "user_signed_out", slog.String("email", liveSession.UserEmail))

	return nil
}
