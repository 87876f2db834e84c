// Copyright (c) 2026 SignOn. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command setup provisions a fresh SignOn installation.
//
// It generates the RSA signing keypair, writes the store-held configuration
// (signing keys, allowed origins, cookie signature keys), seeds the mail
// templates, and creates the root account with the administrator-granting
// root group.
//
// Usage:
//
//	DATABASE_URL=... setup root@example.com
package main

import (
	stdctx "context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/taibuivan/signon/internal/core/configuration"
	"github.com/taibuivan/signon/internal/core/group"
	"github.com/taibuivan/signon/internal/platform/constants"
	"github.com/taibuivan/signon/internal/platform/mail"
	"github.com/taibuivan/signon/internal/platform/migration"
	"github.com/taibuivan/signon/internal/platform/postgres"
	"github.com/taibuivan/signon/internal/platform/sec"
	"github.com/taibuivan/signon/internal/users/user"
)

const (
	rsaKeyBits        = 2048
	signatureKeyCount = 4
	signatureKeyBytes = 21
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if len(os.Args) < 2 {
		logger.Error("usage: setup <root-email>")
		os.Exit(1)
	}

	if err := run(os.Args[1], logger); err != nil {
		logger.Error("setup_failed", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("setup_complete", slog.String("root_email", os.Args[1]))
}

func run(rootEmail string, logger *slog.Logger) error {
	ctx := stdctx.Background()

	// Only the database settings matter here; the API server's required
	// variables (API_URL, REDIS_URL) are not needed to provision storage.
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return fmt.Errorf("setup: DATABASE_URL is required")
	}
	migrationPath := os.Getenv("MIGRATION_PATH")
	if migrationPath == "" {
		migrationPath = "./data/migrations"
	}

	pool, err := postgres.NewPool(ctx, databaseURL, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := migration.RunUp(databaseURL, migrationPath, logger); err != nil {
		return err
	}

	privateKeyPEM, publicJWKSet, err := generateKeyMaterial()
	if err != nil {
		return err
	}

	signatureKeys, err := generateSignatureKeys()
	if err != nil {
		return err
	}

	configurations := configuration.NewPostgresRepository(pool)
	templates := mail.NewPostgresTemplateRepository(pool)
	groups := group.NewPostgresRepository(pool)
	users := user.NewPostgresRepository(pool)

	// Independent writes, issued concurrently and awaited jointly.
	writers, writerCtx := errgroup.WithContext(ctx)

	for _, entry := range []*configuration.Configuration{
		{Slug: configuration.SlugPrivateKey, Value: privateKeyPEM},
		{Slug: configuration.SlugPublicKey, Value: publicJWKSet},
		{Slug: configuration.SlugAllowedOrigins, Value: "https://localhost:3000,https://localhost:8443"},
		{Slug: configuration.SlugCookieSignatureKeys, Value: signatureKeys},
	} {
		entry := entry
		writers.Go(func() error {
			return configurations.Save(writerCtx, entry)
		})
	}

	for _, entry := range []*mail.Template{
		{
			Slug:    constants.MailSignUp,
			Subject: "SignOn: Verify your e-mail address",
			Text:    "Sign in by going to $linkURL",
			HTML:    `Sign in by going to <a href="$linkURL">$linkURL</a>`,
		},
		{
			Slug:    constants.MailForgotPassword,
			Subject: "SignOn: Forgot Password",
			Text:    "Sign in by going to $linkURL",
			HTML:    `Sign in by going to <a href="$linkURL">$linkURL</a>`,
		},
		{
			Slug:    constants.MailWelcome,
			Subject: "Welcome to SignOn",
			Text:    "Sign in by going to $linkURL",
			HTML:    `Sign in by going to <a href="$linkURL">$linkURL</a>`,
		},
	} {
		entry := entry
		writers.Go(func() error {
			return templates.Save(writerCtx, entry)
		})
	}

	writers.Go(func() error {
		return groups.Save(writerCtx, &group.Group{
			Slug:        "root",
			Name:        "Root",
			Permissions: []string{constants.PermissionAdministrator},
			Owner:       constants.PermissionAdministrator,
			Status:      group.StatusActive,
		})
	})

	writers.Go(func() error {
		return users.Save(writerCtx, &user.User{
			Email:  user.NormalizeEmail(rootEmail),
			Name:   "Root",
			Groups: []string{"root"},
		})
	})

	return writers.Wait()
}

// generateKeyMaterial creates the RSA signing keypair: the private key as
// PKCS#8 PEM for the configuration store, the public key as a JWK set
// document served verbatim by GET /public-key.
func generateKeyMaterial() (string, string, error) {
	privateKey, err := rsa.GenerateKey(rand.Reader, rsaKeyBits)
	if err != nil {
		return "", "", fmt.Errorf("setup: generate keypair: %w", err)
	}

	privateDER, err := x509.MarshalPKCS8PrivateKey(privateKey)
	if err != nil {
		return "", "", fmt.Errorf("setup: encode private key: %w", err)
	}
	privatePEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privateDER})

	jwkSet, err := publicKeyToJWKSet(&privateKey.PublicKey)
	if err != nil {
		return "", "", err
	}

	return string(privatePEM), jwkSet, nil
}

// publicKeyToJWKSet renders an RSA public key as a one-key JWK set.
func publicKeyToJWKSet(publicKey *rsa.PublicKey) (string, error) {
	exponent := make([]byte, 0, 4)
	for e := publicKey.E; e > 0; e >>= 8 {
		exponent = append([]byte{byte(e)}, exponent...)
	}

	set := map[string]any{
		"keys": []map[string]string{{
			"kty": "RSA",
			"use": "sig",
			"alg": "RS256",
			"n":   base64.RawURLEncoding.EncodeToString(publicKey.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(exponent),
		}},
	}

	encoded, err := json.Marshal(set)
	if err != nil {
		return "", fmt.Errorf("setup: encode jwk set: %w", err)
	}

	return string(encoded), nil
}

// generateSignatureKeys mints the cookie HMAC rotation set, newest first.
func generateSignatureKeys() (string, error) {
	keys := ""
	for index := 0; index < signatureKeyCount; index++ {
		key, err := sec.GenerateSecureToken(signatureKeyBytes)
		if err != nil {
			return "", fmt.Errorf("setup: generate signature key: %w", err)
		}
		if index > 0 {
			keys += ","
		}
		keys += key
	}

	return keys, nil
}
