// Copyright (c) 2026 SignOn. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strings"
)

// CookieSigner authenticates cookie values with HMAC-SHA256 against a
// rotating set of server-held keys.
//
// # Rotation
//
// New cookies are always signed with the first key. Verification accepts a
// signature from ANY key in the set, so a key can be retired by moving it to
// the back of the list for one deployment cycle before dropping it. The key
// set comes from the store-held configuration snapshot; rotating it requires
// a restart.
type CookieSigner struct {
	keys [][]byte
}

// ErrNoSignatureKeys is returned when the configuration holds no cookie keys.
var ErrNoSignatureKeys = errors.New("sec: no cookie signature keys configured")

// NewCookieSigner creates a signer from the configured key list.
func NewCookieSigner(keys []string) (*CookieSigner, error) {
	material := make([][]byte, 0, len(keys))
	for _, key := range keys {
		if key == "" {
			continue
		}
		material = append(material, []byte(key))
	}

	if len(material) == 0 {
		return nil, ErrNoSignatureKeys
	}

	return &CookieSigner{keys: material}, nil
}

// Sign returns "value.signature" where the signature is computed with the
// newest key.
func (signer *CookieSigner) Sign(value string) string {
	return value + "." + signer.signature(signer.keys[0], value)
}

// Verify splits a signed cookie value and checks its signature against every
// key in the rotation set.
//
// Returns the embedded value and true only when some key produces a matching
// signature. A cookie is valid for authentication only on success.
func (signer *CookieSigner) Verify(signedValue string) (string, bool) {
	separator := strings.LastIndexByte(signedValue, '.')
	if separator <= 0 {
		return "", false
	}

	value := signedValue[:separator]
	signature := signedValue[separator+1:]

	for _, key := range signer.keys {
		expected := signer.signature(key, value)
		// hmac.Equal is constant-time.
		if hmac.Equal([]byte(signature), []byte(expected)) {
			return value, true
		}
	}

	return "", false
}

// signature computes the base64url HMAC-SHA256 of value under key.
func (signer *CookieSigner) signature(key []byte, value string) string {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(value))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
