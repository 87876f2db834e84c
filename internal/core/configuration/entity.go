// Copyright (c) 2026 SignOn. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package configuration manages the slug-keyed settings stored in PostgreSQL.

Unlike environment variables, these values are data the service itself
provisions (the setup command writes them) and serves (the public key is
returned verbatim over HTTP). They are loaded once into an immutable
[Snapshot] at startup; rotating a value requires a restart, which keeps every
in-flight request on a consistent key set.
*/
package configuration

import "time"

// Well-known configuration slugs.
const (
	SlugPrivateKey          = "private-key"
	SlugPublicKey           = "public-key"
	SlugAllowedOrigins      = "allowed-origins"
	SlugCookieSignatureKeys = "cookie-signature-keys"
)

// Configuration is a single slug-keyed setting.
type Configuration struct {
	Slug    string    `json:"slug"`
	Value   string    `json:"value"`
	Created time.Time `json:"created"`
}

// Snapshot is the immutable startup view of the configuration table.
type Snapshot struct {
	// PrivateKey is the PEM-encoded RSA private key used to sign tokens.
	PrivateKey string
	// PublicKey is the JWK set document served verbatim to token consumers.
	PublicKey string
	// AllowedOrigins is the browser origin allow-list.
	AllowedOrigins []string
	// CookieSignatureKeys are the HMAC keys for session cookies, newest first.
	CookieSignatureKeys []string
}
