// Package response defines the uniform API envelope every handler returns
// and the single place HTTP status codes are derived from.
package response

import "net/http"

// Error codes carried in Envelope.Error.Code.
const (
	CodeNotFound      = "NOT_FOUND"
	CodeValidation    = "VALIDATION_ERROR"
	CodeConflict      = "CONFLICT"
	CodeUnauthorized  = "UNAUTHORIZED"
	CodeForbidden     = "FORBIDDEN"
	CodeNotAcceptable = "NOT_ACCEPTABLE"
	CodeHashError     = "HASH_ERROR"
	CodeRateLimited   = "RATE_LIMIT_EXCEEDED"

	CodeCreateError = "CREATE_ERROR"
	CodeUpdateError = "UPDATE_ERROR"
	CodeDeleteError = "DELETE_ERROR"
	CodeFetchError  = "FETCH_ERROR"
	CodeAuthError   = "AUTH_ERROR"
	CodeConfigError = "CONFIG_ERROR"
)

// ErrorInfo describes a failed operation.
type ErrorInfo struct {
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}

// Envelope is the wire shape of every API response. Success implies Error is
// nil; failure implies Data is nil and Error carries one of the codes above.
type Envelope struct {
	Success bool       `json:"success"`
	Message string     `json:"message"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`

	created bool
}

// Success builds a successful envelope. Pass nil data to omit the field.
func Success(message string, data any) Envelope {
	return Envelope{Success: true, Message: message, Data: data}
}

// Created builds a successful envelope that StatusFor maps to 201.
func Created(message string, data any) Envelope {
	return Envelope{Success: true, Message: message, Data: data, created: true}
}

// Err builds a failed envelope with an arbitrary code.
func Err(message, code string, details ...string) Envelope {
	info := &ErrorInfo{Code: code}
	if len(details) > 0 {
		info.Details = details[0]
	}
	return Envelope{Success: false, Message: message, Error: info}
}

func NotFound(message string) Envelope {
	return Err(message, CodeNotFound)
}

func Validation(message string, details ...string) Envelope {
	return Err(message, CodeValidation, details...)
}

func Conflict(message string) Envelope {
	return Err(message, CodeConflict)
}

func Unauthorized(message string) Envelope {
	return Err(message, CodeUnauthorized)
}

func Forbidden(message string) Envelope {
	return Err(message, CodeForbidden)
}

func NotAcceptable(message string) Envelope {
	return Err(message, CodeNotAcceptable)
}

func HashError(message string) Envelope {
	return Err(message, CodeHashError)
}

// StatusFor maps an envelope to its HTTP status. Total: unknown or missing
// error codes map to 500, success to 200 (201 for Created envelopes).
func StatusFor(e Envelope) int {
	if e.Success {
		if e.created {
			return http.StatusCreated
		}
		return http.StatusOK
	}

	code := ""
	if e.Error != nil {
		code = e.Error.Code
	}

	switch code {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeValidation:
		return http.StatusUnprocessableEntity
	case CodeConflict:
		return http.StatusConflict
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeHashError:
		return http.StatusInternalServerError
	case CodeNotAcceptable:
		return http.StatusNotAcceptable
	case CodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
