// Copyright (c) 2026 SignOn. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package apperr defines the centralized error handling framework for SignOn.

It provides a rich error type that bridges the gap between low-level Domain/Storage
errors and high-level HTTP responses.

Architecture:

  - AppError: A struct carrying a stable machine-readable message code.
  - Taxonomy: One constructor per error class the API is allowed to emit.
  - Mapping: Explicit mapping from AppError to standard HTTP Status Codes.

Every error that leaves the service layer must be wrapped as an [AppError] so
clients can branch and localize on the message code instead of free text.
*/
package apperr

import (
	"errors"
	"net/http"
)

// AppError is the canonical error type for the SignOn API.
//
// It carries an HTTP status code, a stable machine-readable message code, and
// an optional wrapped cause.
//
// # Security
//
// The Cause field is for server-side logging only and is never sent to clients
// to avoid leaking internal implementation details (e.g., SQL queries, SMTP
// responses, identity-provider payloads).
type AppError struct {
	// Message is the stable machine-readable code (e.g. "wrong-credentials").
	// Clients branch and localize on this value; it is never free text.
	Message string `json:"message"`
	// HTTPStatus is the HTTP response status code.
	HTTPStatus int `json:"status"`
	// Cause is the underlying error, used for server-side logging only.
	Cause error `json:"-"`
	// Fields names the missing or invalid request fields for
	// "missing-fields" responses.
	Fields []FieldError `json:"fields,omitempty"`
}

// FieldError represents a single field-level validation failure.
type FieldError struct {
	// Field is the JSON field name that failed validation.
	Field string `json:"field"`
	// Message is the human-readable description of the failure.
	Message string `json:"message"`
}

// Error implements the error interface. It returns the message code.
func (e *AppError) Error() string { return e.Message }

// Unwrap allows [errors.Is] and [errors.As] to traverse the cause chain.
func (e *AppError) Unwrap() error { return e.Cause }

// # Client Errors (4xx)

// MissingFields creates a 400 [AppError] for malformed or absent input.
//
// Every request-shape violation maps here — the API never distinguishes
// between a missing field and a field of the wrong type.
func MissingFields(fields ...FieldError) *AppError {
	return &AppError{
		Message:    "missing-fields",
		HTTPStatus: http.StatusBadRequest,
		Fields:     fields,
	}
}

// WrongCredentials creates a 401 [AppError] for a failed password check.
//
// Intentionally indistinguishable from "user not found" to prevent
// account enumeration.
func WrongCredentials() *AppError {
	return &AppError{
		Message:    "wrong-credentials",
		HTTPStatus: http.StatusUnauthorized,
	}
}

// NotSignedIn creates a 401 [AppError] for requests lacking a live session.
func NotSignedIn() *AppError {
	return &AppError{
		Message:    "not-signed-in",
		HTTPStatus: http.StatusUnauthorized,
	}
}

// NotAuthorized creates a 401 [AppError] for authenticated callers lacking
// the required permission or group ownership.
//
// The result does not distinguish "doesn't exist" from "exists but forbidden".
func NotAuthorized() *AppError {
	return &AppError{
		Message:    "not-authorized",
		HTTPStatus: http.StatusUnauthorized,
	}
}

// PasswordInsecure creates a 400 [AppError] for a policy-rejected password.
func PasswordInsecure() *AppError {
	return &AppError{
		Message:    "password-insecure",
		HTTPStatus: http.StatusBadRequest,
	}
}

// LinkExpired creates a 410 [AppError] for a consumed or nonexistent link.
//
// A consumed link and a link that never existed produce the same result, so
// link ids cannot be probed.
func LinkExpired() *AppError {
	return &AppError{
		Message:    "link-expired",
		HTTPStatus: http.StatusGone,
	}
}

// NotFound creates a 404 [AppError] used by storage layers for absent rows.
//
// Orchestration code translates it into the flow-appropriate taxonomy error
// before it reaches a client.
func NotFound() *AppError {
	return &AppError{
		Message:    "not-found",
		HTTPStatus: http.StatusNotFound,
	}
}

// # Server Errors (5xx)

// ServerError creates a 500 [AppError] wrapping a dependency failure
// (mail delivery, identity-provider exchange, storage).
// The cause is stored for logging but is never sent to the client.
func ServerError(cause error) *AppError {
	return &AppError{
		Message:    "server-error-occurred",
		HTTPStatus: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// # Helpers

// IsAppError reports whether err (or any error in its chain) is an [*AppError].
func IsAppError(err error) bool {
	var ae *AppError
	return errors.As(err, &ae)
}

// IsNotFound reports whether err is a storage-layer "not-found" [AppError].
func IsNotFound(err error) bool {
	ae := As(err)
	return ae != nil && ae.Message == "not-found"
}

// IsNotSignedIn reports whether err is a "not-signed-in" [AppError].
func IsNotSignedIn(err error) bool {
	ae := As(err)
	return ae != nil && ae.Message == "not-signed-in"
}

// As extracts the [*AppError] from err's chain. It returns nil if not found.
func As(err error) *AppError {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae
	}
	return nil
}
