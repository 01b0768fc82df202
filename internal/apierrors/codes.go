// Package apierrors provides structured API error codes and responses.
// All codes are namespaced (e.g., "core:unauthorized", "ticket:invalid_status").
package apierrors

import "net/http"

// Core error codes - registered automatically at init
const (
	// Authentication & Authorization
	CodeUnauthorized = "core:unauthorized"
	CodeForbidden    = "core:forbidden"
	CodeInvalidToken = "core:invalid_token"
	CodeBadLogin     = "core:bad_login"

	// Request errors
	CodeInvalidRequest   = "core:invalid_request"
	CodeValidationFailed = "core:validation_failed"
	CodeInvalidID        = "core:invalid_id"

	// Resource errors
	CodeNotFound = "core:not_found"
	CodeConflict = "core:conflict"

	// Rate limiting
	CodeRateLimited = "core:rate_limited"

	// Server errors
	CodeInternalError      = "core:internal_error"
	CodeServiceUnavailable = "core:service_unavailable"
)

// Domain error codes
const (
	CodeTicketNotFound      = "ticket:not_found"
	CodeTicketInvalidStatus = "ticket:invalid_status"
	CodeMasterNotFound      = "master:not_found"
	CodeCallBadSignature    = "call:bad_signature"
	CodeCallUnknownProvider = "call:unknown_provider"
)

// registeredErrors defines all error codes with their default messages and HTTP status
var registeredErrors = []ErrorCode{
	// Authentication & Authorization
	{Code: CodeUnauthorized, Message: "Authentication required", HTTPStatus: http.StatusUnauthorized},
	{Code: CodeForbidden, Message: "Permission denied", HTTPStatus: http.StatusForbidden},
	{Code: CodeInvalidToken, Message: "Invalid or malformed token", HTTPStatus: http.StatusUnauthorized},
	{Code: CodeBadLogin, Message: "Invalid username or password", HTTPStatus: http.StatusUnauthorized},

	// Request errors
	{Code: CodeInvalidRequest, Message: "Invalid request body", HTTPStatus: http.StatusBadRequest},
	{Code: CodeValidationFailed, Message: "Request validation failed", HTTPStatus: http.StatusBadRequest},
	{Code: CodeInvalidID, Message: "Invalid ID format", HTTPStatus: http.StatusBadRequest},

	// Resource errors
	{Code: CodeNotFound, Message: "Resource not found", HTTPStatus: http.StatusNotFound},
	{Code: CodeConflict, Message: "Resource conflict", HTTPStatus: http.StatusConflict},

	// Rate limiting
	{Code: CodeRateLimited, Message: "Too many requests", HTTPStatus: http.StatusTooManyRequests},

	// Server errors
	{Code: CodeInternalError, Message: "Internal server error", HTTPStatus: http.StatusInternalServerError},
	{Code: CodeServiceUnavailable, Message: "Service temporarily unavailable", HTTPStatus: http.StatusServiceUnavailable},

	// Domain
	{Code: CodeTicketNotFound, Message: "Ticket not found", HTTPStatus: http.StatusNotFound},
	{Code: CodeTicketInvalidStatus, Message: "Status is not part of the ticket lifecycle", HTTPStatus: http.StatusBadRequest},
	{Code: CodeMasterNotFound, Message: "Master not found", HTTPStatus: http.StatusNotFound},
	{Code: CodeCallBadSignature, Message: "Webhook signature verification failed", HTTPStatus: http.StatusForbidden},
	{Code: CodeCallUnknownProvider, Message: "Unknown call provider", HTTPStatus: http.StatusBadRequest},
}

func init() {
	// Register all error codes
	for _, e := range registeredErrors {
		Registry.Register(e)
	}
}
