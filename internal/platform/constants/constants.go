// Copyright (c) 2026 SignOn. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package constants provides centralized, immutable values for the entire platform.

It defines default timeouts, cookie configuration, and cross-cutting keys that
are shared between different layers of the system.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Security: Session cookie configuration and token lifetimes.
  - Authorization: The administrator permission marker.

Using this package ensures Magic Strings and Magic Numbers are eliminated
from the business logic.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "signon-api"
	AppVersion = "0.1.0-dev"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	DefaultWriteTimeout = 10 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for the entire request lifecycle.
	GlobalRequestTimeout = 30 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second
)

// # Authentication

const (
	// SessionCookieName is the name of the signed cookie carrying the session id.
	// The __Secure- prefix makes browsers reject it over plain HTTP.
	SessionCookieName = "__Secure-Session-ID"

	// SessionCookieLifetime is how long the session cookie is kept by the
	// browser. The session record on the server, not the cookie, is the
	// credential of record; sign-out and expiry invalidate it regardless.
	SessionCookieLifetime = 20 * 365 * 24 * time.Hour

	// SessionIDLength is the byte length of the random session identifier.
	SessionIDLength = 24

	// LinkIDLength is the byte length of a single-use sign-in link id.
	LinkIDLength = 24

	// TokenTTL is the validity window of an issued claims token. The token
	// is a capability snapshot, not a durable credential.
	TokenTTL = 3 * time.Hour

	// OAuthStateTTL is how long a pending federated sign-in state nonce
	// remains redeemable.
	OAuthStateTTL = 10 * time.Minute

	// DefaultSignInDelay flattens the response-time difference between
	// failed and successful password checks to reduce the enumeration
	// signal. Policy knob, overridable via SIGN_IN_DELAY.
	DefaultSignInDelay = 500 * time.Millisecond
)

// # Authorization

const (
	// PermissionAdministrator is the effective-permission marker that grants
	// unrestricted group administration (bulk group upserts, full listings).
	PermissionAdministrator = "administrator"
)

// # Mail Template Slugs

const (
	MailSignUp         = "sign-up"
	MailForgotPassword = "forgot-password"
	MailWelcome        = "welcome"
)

// # HTTP Headers

const (
	HeaderXRequestID    = "X-Request-ID"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderOrigin        = "Origin"
)

// # Redis Prefixes (Cache Taxonomy)

const (
	RedisPrefixSession    = "auth:session:"
	RedisPrefixOAuthState = "auth:oauth_state:"
)
