// Copyright (c) 2026 SignOn. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package respond provides HTTP response helpers used by all API handlers.
//
// # Architecture
//
// This package centralizes the presentation logic for HTTP responses.
// Every payload the API emits is a tagged-union object — "type" is one of
// key|error|redirect|sign-in|load — so clients can switch on a single
// discriminator field. Redirects are the exception: they are plain HTTP 302
// responses because the user-agent is mid-navigation.
package respond

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/taibuivan/signon/internal/platform/apperr"
	"github.com/taibuivan/signon/internal/platform/ctxutil"
)

// errorEnvelope is the JSON envelope for error responses.
type errorEnvelope struct {
	Type    string              `json:"type"`
	Status  int                 `json:"status"`
	Message string              `json:"message"`
	Fields  []apperr.FieldError `json:"fields,omitempty"`
}

// JSON writes a JSON response with the given status code.
func JSON(writer http.ResponseWriter, statusCode int, payload interface{}) {
	writer.Header().Set("Content-Type", "application/json; charset=utf-8")
	writer.WriteHeader(statusCode)
	_ = json.NewEncoder(writer).Encode(payload)
}

// OK writes a 200 OK response with the given tagged payload.
func OK(writer http.ResponseWriter, payload interface{}) {
	JSON(writer, http.StatusOK, payload)
}

// Null writes a 200 OK response with a JSON null body.
//
// Flows that complete without a caller-visible result (sign-up, sign-out,
// forgot-password, anonymous auto-sign-in) respond this way.
func Null(writer http.ResponseWriter) {
	JSON(writer, http.StatusOK, nil)
}

// Key writes the published verification key verbatim.
//
// The configuration value is already a JSON-encoded JWK set, so it is
// streamed through without re-encoding.
func Key(writer http.ResponseWriter, key string) {
	writer.Header().Set("Content-Type", "application/json; charset=utf-8")
	writer.WriteHeader(http.StatusOK)
	_, _ = writer.Write([]byte(key))
}

// Redirect writes an HTTP 302 with the Location header.
func Redirect(writer http.ResponseWriter, request *http.Request, location string) {
	http.Redirect(writer, request, location, http.StatusFound)
}

// Error converts any Go error into a standardized tagged error response.
func Error(writer http.ResponseWriter, request *http.Request, err error) {
	var appError *apperr.AppError
	if !errors.As(err, &appError) {
		// Unexpected internal error: log full details but hide them from the client for security.
		logger := ctxutil.GetLogger(request.Context())
		logger.ErrorContext(request.Context(), "unhandled_error_swallowed",
			slog.String("error", err.Error()),
			slog.String("request_id", ctxutil.GetRequestID(request.Context())),
		)
		appError = apperr.ServerError(err)
	}

	// Always log 5xx errors as they indicate server-side issues.
	if appError.HTTPStatus >= 500 {
		logger := ctxutil.GetLogger(request.Context())
		logger.ErrorContext(request.Context(), "api_server_error",
			slog.String("message", appError.Message),
			slog.String("request_id", ctxutil.GetRequestID(request.Context())),
			slog.Any("cause", appError.Cause),
		)
	}

	JSON(writer, appError.HTTPStatus, errorEnvelope{
		Type:    "error",
		Status:  appError.HTTPStatus,
		Message: appError.Message,
		Fields:  appError.Fields,
	})
}
