// Copyright (c) 2026 SignOn. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/signon/internal/core/group"
	"github.com/taibuivan/signon/internal/platform/constants"
	"github.com/taibuivan/signon/internal/platform/oauth"
	requestutil "github.com/taibuivan/signon/internal/platform/request"
	"github.com/taibuivan/signon/internal/platform/respond"
	"github.com/taibuivan/signon/internal/platform/sec"
	"github.com/taibuivan/signon/internal/platform/validate"
)

// Handler exposes the authentication and administration flows over HTTP.
type Handler struct {
	service *Service
	cookies *sec.CookieSigner
}

// NewHandler constructs an auth [Handler].
func NewHandler(service *Service, cookies *sec.CookieSigner) *Handler {
	return &Handler{
		service: service,
		cookies: cookies,
	}
}

// Routes mounts every auth entry point.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Browser-navigated (redirect) endpoints.
	router.Get("/public-key", handler.publicKey)
	router.Get("/google-redirect", handler.googleRedirect)
	router.Get("/google-sign-in", handler.googleSignIn)
	router.Get("/sign-in-link", handler.signInLink)

	// JSON endpoints.
	router.Post("/auto-sign-in", handler.autoSignIn)
	router.Post("/sign-in", handler.signIn)
	router.Post("/sign-up", handler.signUp)
	router.Post("/forgot-password", handler.forgotPassword)
	router.Post("/sign-out", handler.signOut)
	router.Post("/load", handler.load)
	router.Post("/set-me", handler.setMe)
	router.Post("/set-user", handler.setUser)
	router.Post("/set-groups", handler.setGroups)

	return router
}

// # Cookie Handling

// sessionID extracts and authenticates the session id from the cookie.
// Anything short of a correctly signed cookie is an anonymous request.
func (handler *Handler) sessionID(request *http.Request) string {
	cookie, err := request.Cookie(constants.SessionCookieName)
	if err != nil {
		return ""
	}

	id, ok := handler.cookies.Verify(cookie.Value)
	if !ok {
		return ""
	}

	return id
}

// setSessionCookie binds a session to the browser. The __Secure- prefix
// requires the Secure attribute; HttpOnly and SameSite=Lax keep the cookie
// away from script and cross-site posts.
func (handler *Handler) setSessionCookie(writer http.ResponseWriter, sessionID string) {
	http.SetCookie(writer, &http.Cookie{
		Name:     constants.SessionCookieName,
		Value:    handler.cookies.Sign(sessionID),
		Path:     "/",
		MaxAge:   int(constants.SessionCookieLifetime.Seconds()),
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (handler *Handler) clearSessionCookie(writer http.ResponseWriter) {
	http.SetCookie(writer, &http.Cookie{
		Name:     constants.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// # Browser-Navigated Endpoints

func (handler *Handler) publicKey(writer http.ResponseWriter, request *http.Request) {
	respond.Key(writer, handler.service.PublicKey())
}

func (handler *Handler) googleRedirect(writer http.ResponseWriter, request *http.Request) {
	redirect := requestutil.Query(request, "redirect")

	validator := &validate.Validator{}
	if err := validator.Required("redirect", redirect).Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	consentURL, err := handler.service.GoogleRedirectURL(request.Context(), redirect)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Redirect(writer, request, consentURL)
}

func (handler *Handler) googleSignIn(writer http.ResponseWriter, request *http.Request) {
	code := requestutil.Query(request, "code")
	state := requestutil.Query(request, "state")

	redirect, liveSession, err := handler.service.GoogleSignIn(request.Context(), code, state)
	if err != nil {
		// The user-agent is mid-navigation: carry the failure as a query
		// parameter on the redirect instead of failing the transaction.
		respond.Redirect(writer, request, appendErrorParam(redirect, federatedErrorMarker(err)))
		return
	}

	handler.setSessionCookie(writer, liveSession.ID)
	respond.Redirect(writer, request, redirect)
}

func (handler *Handler) signInLink(writer http.ResponseWriter, request *http.Request) {
	id := requestutil.Query(request, "id")

	redirect, liveSession, err := handler.service.ConsumeLink(request.Context(), id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.setSessionCookie(writer, liveSession.ID)
	respond.Redirect(writer, request, redirect)
}

// federatedErrorMarker maps a federated sign-in failure to its stable
// machine-readable marker.
func federatedErrorMarker(err error) string {
	if errors.Is(err, oauth.ErrUserInfo) {
		return "google-user-info-failed"
	}
	// State and exchange failures are both token-stage failures to clients.
	return "google-token-auth-failed"
}

// appendErrorParam appends error=<marker> to a redirect target, falling back
// to the site root when the target is unknown.
func appendErrorParam(redirect, marker string) string {
	if redirect == "" {
		redirect = "/"
	}

	separator := "?"
	if strings.Contains(redirect, "?") {
		separator = "&"
	}

	return redirect + separator + "error=" + url.QueryEscape(marker)
}

// # JSON Endpoints

func (handler *Handler) autoSignIn(writer http.ResponseWriter, request *http.Request) {
	result, err := handler.service.AutoSignIn(request.Context(), handler.sessionID(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if result == nil {
		respond.Null(writer)
		return
	}

	respond.OK(writer, result)
}

func (handler *Handler) signIn(writer http.ResponseWriter, request *http.Request) {
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	err := validator.
		Required("email", payload.Email).
		Email("email", payload.Email).
		Required("password", payload.Password).
		Err()
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, liveSession, err := handler.service.SignIn(request.Context(), payload.Email, payload.Password)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.setSessionCookie(writer, liveSession.ID)
	respond.OK(writer, result)
}

func (handler *Handler) signUp(writer http.ResponseWriter, request *http.Request) {
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Redirect string `json:"redirect"`
		Name     string `json:"name"`
	}
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	err := validator.
		Required("email", payload.Email).
		Email("email", payload.Email).
		Required("redirect", payload.Redirect).
		Err()
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.SignUp(request.Context(), payload.Email, payload.Password, payload.Redirect, payload.Name); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Null(writer)
}

func (handler *Handler) forgotPassword(writer http.ResponseWriter, request *http.Request) {
	var payload struct {
		Email    string `json:"email"`
		Redirect string `json:"redirect"`
	}
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	err := validator.
		Required("email", payload.Email).
		Email("email", payload.Email).
		Required("redirect", payload.Redirect).
		Err()
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.ForgotPassword(request.Context(), payload.Email, payload.Redirect); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Null(writer)
}

func (handler *Handler) signOut(writer http.ResponseWriter, request *http.Request) {
	if err := handler.service.SignOut(request.Context(), handler.sessionID(request)); err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.clearSessionCookie(writer)
	respond.Null(writer)
}

func (handler *Handler) load(writer http.ResponseWriter, request *http.Request) {
	result, err := handler.service.Load(request.Context(), handler.sessionID(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, result)
}

func (handler *Handler) setMe(writer http.ResponseWriter, request *http.Request) {
	var payload struct {
		Name     *string `json:"name"`
		Password *string `json:"password"`
	}
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.service.SetMe(request.Context(), handler.sessionID(request), payload.Name, payload.Password)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, result)
}

func (handler *Handler) setUser(writer http.ResponseWriter, request *http.Request) {
	var payload struct {
		Email     string   `json:"email"`
		Name      string   `json:"name"`
		Groups    []string `json:"groups"`
		SendEmail string   `json:"sendEmail"`
		Redirect  string   `json:"redirect"`
	}
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	err := validator.
		Required("email", payload.Email).
		Email("email", payload.Email).
		Custom("groups", payload.Groups == nil, "Must be an array of group slugs").
		Err()
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.service.SetUser(
		request.Context(),
		handler.sessionID(request),
		payload.Email,
		payload.Name,
		payload.Groups,
		payload.SendEmail,
		payload.Redirect,
	)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, result)
}

func (handler *Handler) setGroups(writer http.ResponseWriter, request *http.Request) {
	var payload struct {
		Groups []*group.Group `json:"groups"`
	}
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.service.SetGroups(request.Context(), handler.sessionID(request), payload.Groups)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, result)
}
