package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	dErrors "podium/pkg/domain-errors"
)

// MessageFunc turns a domain error into the text shown to the user. It lets the
// auth service keep raw backend wording out of responses.
type MessageFunc func(err error) string

func WriteJSON(w http.ResponseWriter, status int, response any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	// Errors after WriteHeader cannot change the status code, so we ignore encoding errors.
	_ = json.NewEncoder(w).Encode(response)
}

// WriteError centralizes domain error translation to HTTP responses.
// The error_description is the domain message; callers that must not surface
// backend text use WriteErrorMessage instead.
func WriteError(w http.ResponseWriter, err error) {
	WriteErrorMessage(w, err, nil)
}

// WriteErrorMessage writes a JSON error envelope whose description is produced
// by msg. A nil msg falls back to the domain error message.
func WriteErrorMessage(w http.ResponseWriter, err error, msg MessageFunc) {
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		response := map[string]string{
			"error": DomainCodeToHTTPCode(domainErr.Code),
		}
		description := domainErr.Message
		if msg != nil {
			description = msg(err)
		}
		if description != "" {
			response["error_description"] = description
		}
		WriteJSON(w, DomainCodeToHTTPStatus(domainErr.Code), response)
		return
	}

	response := map[string]string{
		"error": DomainCodeToHTTPCode(dErrors.CodeInternal),
	}
	if msg != nil {
		response["error_description"] = msg(err)
	}
	WriteJSON(w, http.StatusInternalServerError, response)
}

// DomainCodeToHTTPStatus translates domain error codes to HTTP status codes.
func DomainCodeToHTTPStatus(code dErrors.Code) int {
	switch code {
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeBadRequest, dErrors.CodeValidation, dErrors.CodeInvalidInput, dErrors.CodeInvariantViolation:
		return http.StatusBadRequest
	case dErrors.CodeWeakPassword, dErrors.CodePasswordMismatch:
		return http.StatusUnprocessableEntity
	case dErrors.CodeConflict:
		return http.StatusConflict
	case dErrors.CodeUnauthorized, dErrors.CodeInvalidToken:
		return http.StatusUnauthorized
	case dErrors.CodeForbidden, dErrors.CodeInvalidState:
		return http.StatusForbidden
	case dErrors.CodeExpiredToken:
		return http.StatusGone
	case dErrors.CodeTimeout:
		return http.StatusGatewayTimeout
	case dErrors.CodeNetwork:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// DomainCodeToHTTPCode translates domain error codes to HTTP error codes (for JSON response).
func DomainCodeToHTTPCode(code dErrors.Code) string {
	switch code {
	case dErrors.CodeNotFound:
		return "not_found"
	case dErrors.CodeBadRequest, dErrors.CodeInvalidInput:
		return "bad_request"
	case dErrors.CodeValidation, dErrors.CodeInvariantViolation:
		return "validation_error"
	case dErrors.CodeConflict:
		return "conflict"
	case dErrors.CodeUnauthorized:
		return "unauthorized"
	case dErrors.CodeForbidden:
		return "forbidden"
	case dErrors.CodeTimeout:
		return "timeout"
	case dErrors.CodeNetwork:
		return "network_error"
	case dErrors.CodeInvalidState:
		return "invalid_state"
	case dErrors.CodeInvalidToken:
		return "invalid_token"
	case dErrors.CodeExpiredToken:
		return "expired_token"
	case dErrors.CodeWeakPassword:
		return "weak_password"
	case dErrors.CodePasswordMismatch:
		return "password_mismatch"
	default:
		return "internal_error"
	}
}

// Preparable is implemented by request bodies that normalize themselves and
// then validate.
type Preparable interface {
	Normalize()
	Validate() error
}

// DecodeAndPrepare decodes a JSON request body into T, then normalizes and
// validates it. On failure it writes the error response and returns false.
func DecodeAndPrepare[T any, PT interface {
	*T
	Preparable
}](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string) (*T, bool) {
	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "failed to decode request body",
			"error", err,
			"request_id", requestID,
		)
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return nil, false
	}

	p := PT(&req)
	p.Normalize()
	if err := p.Validate(); err != nil {
		logger.WarnContext(ctx, "invalid request",
			"error", err,
			"request_id", requestID,
		)
		var domainErr *dErrors.Error
		if errors.As(err, &domainErr) {
			WriteError(w, err)
		} else {
			WriteError(w, dErrors.New(dErrors.CodeValidation, err.Error()))
		}
		return nil, false
	}
	return &req, true
}
