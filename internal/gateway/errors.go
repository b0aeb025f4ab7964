package gateway

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"cafe-pos-backend/internal/assets"
	"cafe-pos-backend/internal/lifecycle"
	"cafe-pos-backend/internal/pricing"
	"cafe-pos-backend/internal/store"
)

var (
	ErrBusy        = errors.New("server is busy, please try again")
	ErrBadRequest  = errors.New("bad request")
	ErrStaffOnly   = errors.New("staff login required")
	ErrUnavailable = errors.New("service not configured")
	ErrInternal    = errors.New("internal server error")
)

// Envelope codes.
const (
	CodeBadRequest    = "bad_request"
	CodeUnknownAction = "unknown_action"
	CodeInvalidState  = "invalid_transition"
	CodeUnauthorized  = "unauthorized"
	CodeNotFound      = "not_found"
	CodeConflict      = "conflict"
	CodeBusy          = "busy"
	CodeUnavailable   = "unavailable"
	CodeInternal      = "internal"
)

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrBadRequest, fmt.Sprintf(format, args...))
}

// Describe maps an error to its HTTP status and failure envelope. It is the
// only place backend errors become wire errors.
func Describe(err error) (int, Envelope) {
	status, code := classify(err)
	env := Envelope{Status: StatusError, Code: code, Message: err.Error()}
	if status == http.StatusInternalServerError {
		env.Message = ErrInternal.Error()
		env.Details = err.Error()
	}
	return status, env
}

// Code returns the envelope code for err, or "ok" for nil.
func Code(err error) string {
	if err == nil {
		return "ok"
	}
	_, code := classify(err)
	return code
}

func classify(err error) (int, string) {
	var unknown *UnknownActionError
	var invalid validator.ValidationErrors

	switch {
	case errors.As(err, &unknown):
		return http.StatusBadRequest, CodeUnknownAction
	case errors.Is(err, ErrBusy):
		return http.StatusServiceUnavailable, CodeBusy
	case errors.Is(err, ErrStaffOnly):
		return http.StatusUnauthorized, CodeUnauthorized
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, store.ErrDuplicate),
		errors.Is(err, lifecycle.ErrAlreadyPaid),
		errors.Is(err, lifecycle.ErrOrderCancelled):
		return http.StatusConflict, CodeConflict
	case errors.Is(err, lifecycle.ErrIllegalTransition),
		errors.Is(err, lifecycle.ErrUnknownStatus):
		return http.StatusBadRequest, CodeInvalidState
	case errors.Is(err, ErrBadRequest),
		errors.As(err, &invalid),
		errors.Is(err, lifecycle.ErrSlipRequired),
		errors.Is(err, lifecycle.ErrEmptyCart),
		errors.Is(err, pricing.ErrNotOrderable),
		errors.Is(err, pricing.ErrUnknownClass),
		errors.Is(err, assets.ErrUnsupportedType):
		return http.StatusBadRequest, CodeBadRequest
	case errors.Is(err, ErrUnavailable), errors.Is(err, assets.ErrDisabled):
		return http.StatusServiceUnavailable, CodeUnavailable
	}
	return http.StatusInternalServerError, CodeInternal
}
