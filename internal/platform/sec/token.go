// Copyright (c) 2026 SignOn. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec provides cryptographic primitives and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (Hashing, Cookie Signing,
// JWT Issuance) from the domain logic. It acts as an Infrastructure service
// injected into the Application layer via small constructor-built types.
package sec

import (
	"crypto/rsa"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// IdentityClaims is the payload embedded inside an issued token.
//
// # Capability snapshot
//
// The token carries the caller's post-resolution identity AND effective
// permissions so downstream services can authorize requests WITHOUT calling
// back into this service. It is re-issued on every sign-in and never cached:
// the session cookie, not the token, is the durable credential.
type IdentityClaims struct {
	jwt.RegisteredClaims

	Type        string   `json:"type"`
	Email       string   `json:"email"`
	Name        string   `json:"name"`
	Picture     string   `json:"picture"`
	Password    bool     `json:"password"`
	Google      bool     `json:"google"`
	Groups      []string `json:"groups"`
	Permissions []string `json:"permissions"`
}

// TokenIssuer signs identity tokens using RS256.
//
// The private key never leaves this process; downstream verifiers use the
// published public key (GET /public-key). The issuer itself verifies nothing.
type TokenIssuer struct {
	privateKey *rsa.PrivateKey
	issuer     string
	timeToLive time.Duration
}

// NewTokenIssuer parses the PEM-encoded private key held in the
// configuration snapshot.
func NewTokenIssuer(privateKeyPEM, issuer string, timeToLive time.Duration) (*TokenIssuer, error) {
	privateKey, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(privateKeyPEM))
	if err != nil {
		return nil, fmt.Errorf("sec: failed to parse private key: %w", err)
	}

	return &TokenIssuer{
		privateKey: privateKey,
		issuer:     issuer,
		timeToLive: timeToLive,
	}, nil
}

// Issue signs the claims with a fresh expiry window.
func (issuer *TokenIssuer) Issue(claims IdentityClaims) (string, error) {
	currentTime := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   claims.Email,
		Issuer:    issuer.issuer,
		IssuedAt:  jwt.NewNumericDate(currentTime),
		ExpiresAt: jwt.NewNumericDate(currentTime.Add(issuer.timeToLive)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signedToken, err := token.SignedString(issuer.privateKey)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign token: %w", err)
	}

	return signedToken, nil
}

// ParseClaims verifies a signed token against a PEM-encoded public key.
//
// The API server never calls this — verification belongs to downstream
// consumers. It exists so those consumers (and the conformance tests) share
// one canonical implementation.
func ParseClaims(tokenString, publicKeyPEM string) (*IdentityClaims, error) {
	publicKey, err := jwt.ParseRSAPublicKeyFromPEM([]byte(publicKeyPEM))
	if err != nil {
		return nil, fmt.Errorf("sec: failed to parse public key: %w", err)
	}

	token, err := jwt.ParseWithClaims(tokenString, &IdentityClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("sec: unexpected signing method: %v", token.Header["alg"])
		}
		return publicKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("sec: invalid token: %w", err)
	}

	claims, ok := token.Claims.(*IdentityClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("sec: invalid token claims")
	}

	return claims, nil
}
