// Copyright (c) 2026 SignOn. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package oauth implements the Google OAuth 2.0 authorization-code flow used by
the federated sign-in operations.

Flow:

 1. ConsentURL builds the Google consent screen redirect (with a state nonce).
 2. The browser returns with ?code=...&state=...
 3. ExchangeCode trades the code for an access token.
 4. FetchProfile resolves the token into the user's Google profile.

Failures are classified into [ErrTokenExchange] and [ErrUserInfo] so the
handler can redirect the browser back with the matching error marker instead
of rendering a JSON error nobody sees.
*/
package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Sentinel failures, mapped to redirect error markers by the HTTP layer.
var (
	// ErrTokenExchange indicates the authorization code could not be traded
	// for an access token.
	ErrTokenExchange = errors.New("google-token-auth-failed")
	// ErrUserInfo indicates the access token could not be resolved into a
	// user profile.
	ErrUserInfo = errors.New("google-user-info-failed")
)

// Google API endpoints.
const (
	consentEndpoint  = "https://accounts.google.com/o/oauth2/v2/auth"
	tokenEndpoint    = "https://oauth2.googleapis.com/token"
	userInfoEndpoint = "https://www.googleapis.com/oauth2/v1/userinfo"

	exchangeTimeout = 10 * time.Second
)

// Profile is the subset of the Google userinfo response the service needs.
type Profile struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// GoogleClient drives the authorization-code flow against Google.
type GoogleClient struct {
	clientID     string
	clientSecret string
	redirectURL  string
	httpClient   *http.Client
}

/*
NewGoogleClient constructs a [GoogleClient].

Parameters:
  - clientID: string (OAuth client ID from the Google console)
  - clientSecret: string (matching client secret)
  - redirectURL: string (our /api/google-sign-in callback URL)
*/
func NewGoogleClient(clientID, clientSecret, redirectURL string) *GoogleClient {
	return &GoogleClient{
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURL:  redirectURL,
		httpClient:   &http.Client{Timeout: exchangeTimeout},
	}
}

// ConsentURL builds the Google consent screen URL carrying the given state.
func (client *GoogleClient) ConsentURL(state string) string {
	query := url.Values{}
	query.Set("client_id", client.clientID)
	query.Set("redirect_uri", client.redirectURL)
	query.Set("response_type", "code")
	query.Set("scope", "email profile")
	query.Set("state", state)

	return consentEndpoint + "?" + query.Encode()
}

/*
ExchangeCode trades an authorization code for an access token.

Returns:
  - string: The bearer access token
  - error: [ErrTokenExchange] on any failure
*/
func (client *GoogleClient) ExchangeCode(context context.Context, code string) (string, error) {
	form := url.Values{}
	form.Set("code", code)
	form.Set("client_id", client.clientID)
	form.Set("client_secret", client.clientSecret)
	form.Set("redirect_uri", client.redirectURL)
	form.Set("grant_type", "authorization_code")

	request, err := http.NewRequestWithContext(context, http.MethodPost, tokenEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenExchange, err)
	}
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	response, err := client.httpClient.Do(request)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenExchange, err)
	}
	defer func() { _ = response.Body.Close() }()

	if response.StatusCode != http.StatusOK {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, response.Body)
		return "", fmt.Errorf("%w: status %d", ErrTokenExchange, response.StatusCode)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(response.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenExchange, err)
	}
	if payload.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access token", ErrTokenExchange)
	}

	return payload.AccessToken, nil
}

/*
FetchProfile resolves an access token into the user's Google profile.

Returns:
  - *Profile: The federated identity
  - error: [ErrUserInfo] on any failure
*/
func (client *GoogleClient) FetchProfile(context context.Context, accessToken string) (*Profile, error) {
	request, err := http.NewRequestWithContext(context, http.MethodGet, userInfoEndpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUserInfo, err)
	}
	request.Header.Set("Authorization", "Bearer "+accessToken)

	response, err := client.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUserInfo, err)
	}
	defer func() { _ = response.Body.Close() }()

	if response.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, response.Body)
		return nil, fmt.Errorf("%w: status %d", ErrUserInfo, response.StatusCode)
	}

	var profile Profile
	if err := json.NewDecoder(response.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUserInfo, err)
	}
	if profile.ID == "" || profile.Email == "" {
		return nil, fmt.Errorf("%w: incomplete profile", ErrUserInfo)
	}

	return &profile, nil
}
