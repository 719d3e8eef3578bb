package apperr

import (
	"errors"
	"net/http"
)

// Body is the structured error payload returned by every HTTP endpoint.
type Body struct {
	Error Detail `json:"error"`
}

type Detail struct {
	Code    Kind   `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// StatusOf maps an error to its HTTP status code.
func StatusOf(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation, KindInvalidTransition:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// BodyOf renders err for clients. Internal errors never leak their text.
func BodyOf(err error) Body {
	var e *Error
	if !errors.As(err, &e) || e.Kind == KindInternal {
		return Body{Error: Detail{Code: KindInternal, Message: "internal server error"}}
	}
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Kind == KindUnavailable {
		// causes of unavailability are infrastructure details
		return Body{Error: Detail{Code: e.Kind, Message: msg}}
	}
	return Body{Error: Detail{Code: e.Kind, Message: msg, Field: e.Field}}
}
