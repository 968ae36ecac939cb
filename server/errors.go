package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies API failures for status mapping and clients.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindPrecondition Kind = "precondition"
	KindNotFound     Kind = "not_found"
	KindForbidden    Kind = "forbidden"
	KindUpstream     Kind = "upstream"
	KindTimeout      Kind = "timeout"
	KindInternal     Kind = "internal"
)

// apiError carries a classified, client-safe failure.
type apiError struct {
	kind    Kind
	message string
	cause   error
}

func (e *apiError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

func (e *apiError) Unwrap() error { return e.cause }

func errValidation(format string, args ...any) error {
	return &apiError{kind: KindValidation, message: fmt.Sprintf(format, args...)}
}

func errPrecondition(format string, args ...any) error {
	return &apiError{kind: KindPrecondition, message: fmt.Sprintf(format, args...)}
}

func errNotFound(format string, args ...any) error {
	return &apiError{kind: KindNotFound, message: fmt.Sprintf(format, args...)}
}

func errForbidden(format string, args ...any) error {
	return &apiError{kind: KindForbidden, message: fmt.Sprintf(format, args...)}
}

func errUpstream(message string, cause error) error {
	return &apiError{kind: KindUpstream, message: message, cause: cause}
}

func errTimeout(message string, cause error) error {
	return &apiError{kind: KindTimeout, message: message, cause: cause}
}

func statusFor(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindPrecondition:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindUpstream:
		return http.StatusBadGateway
	case KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err as a JSON error body. Unclassified errors are
// reported as internal without leaking their message.
func writeError(w http.ResponseWriter, err error) {
	var apiErr *apiError
	if !errors.As(err, &apiErr) {
		apiErr = &apiError{kind: KindInternal, message: "internal error"}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusFor(apiErr.kind))
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": apiErr.message,
		"kind":  string(apiErr.kind),
	})
}
