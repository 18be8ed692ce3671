package core

import (
	"errors"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	ServiceErrorNoIdentifier          = "INNOVATE_NO_IDENTIFIER"
	ServiceErrorNetwork               = "INNOVATE_NETWORK_ERROR"
	ServiceErrorAuth                  = "INNOVATE_AUTH_ERROR"
	ServiceErrorNotFound              = "INNOVATE_NOT_FOUND"
	ServiceErrorPreferenceUnavailable = "INNOVATE_PREFERENCE_UNAVAILABLE"
	ServiceErrorDevModeDisabled       = "INNOVATE_DEV_MODE_DISABLED"
	ServiceErrorBadInput              = "INNOVATE_BAD_INPUT"
	ServiceErrorInternal              = "INNOVATE_INTERNAL_ERROR"
)

type ErrorKind string

const (
	ErrorKindNoIdentifierConfigured ErrorKind = "no_identifier_configured"
	ErrorKindNetwork                ErrorKind = "network_error"
	ErrorKindAuth                   ErrorKind = "auth_error"
	ErrorKindNotFound               ErrorKind = "not_found"
	ErrorKindPreferenceUnavailable  ErrorKind = "preference_unavailable"
	ErrorKindNotWired               ErrorKind = "not_wired"
)

var (
	ErrNoIdentifierConfigured = errors.New("core: no valid user identifier found")
	ErrNetwork                = errors.New("core: profile api unreachable")
	ErrAuth                   = errors.New("core: authorization rejected")
	ErrNotFound               = errors.New("core: profile not found")
	ErrPreferenceUnavailable  = errors.New("core: preference store unavailable")
	ErrNotWired               = errors.New("core: profile resolver is not configured")
)

// ResolutionError is the terminal failure of one resolution attempt.
type ResolutionError struct {
	Kind       ErrorKind
	Strategy   Strategy
	StatusCode int
	Cause      error
}

func NewResolutionError(kind ErrorKind, strategy Strategy, cause error) *ResolutionError {
	return &ResolutionError{Kind: kind, Strategy: strategy, Cause: cause}
}

func (e *ResolutionError) WithStatus(code int) *ResolutionError {
	if e == nil {
		return nil
	}
	e.StatusCode = code
	return e
}

func (e *ResolutionError) Error() string {
	if e == nil {
		return ""
	}
	base := sentinelForKind(e.Kind).Error()
	if e.Cause == nil {
		return base
	}
	return base + ": " + e.Cause.Error()
}

func (e *ResolutionError) Unwrap() error {
	if e == nil {
		return nil
	}
	if e.Cause == nil {
		return sentinelForKind(e.Kind)
	}
	return errors.Join(sentinelForKind(e.Kind), e.Cause)
}

func (e *ResolutionError) ToServiceError() *goerrors.Error {
	if e == nil {
		return nil
	}
	category, textCode := goerrors.CategoryInternal, ServiceErrorInternal
	switch e.Kind {
	case ErrorKindNoIdentifierConfigured:
		category, textCode = goerrors.CategoryAuth, ServiceErrorNoIdentifier
	case ErrorKindNetwork:
		category, textCode = goerrors.CategoryExternal, ServiceErrorNetwork
	case ErrorKindAuth:
		category, textCode = goerrors.CategoryAuth, ServiceErrorAuth
	case ErrorKindNotFound:
		category, textCode = goerrors.CategoryNotFound, ServiceErrorNotFound
	case ErrorKindPreferenceUnavailable:
		category, textCode = goerrors.CategoryInternal, ServiceErrorPreferenceUnavailable
	case ErrorKindNotWired:
		category, textCode = goerrors.CategoryInternal, ServiceErrorInternal
	}
	metadata := map[string]any{
		"error_kind": string(e.Kind),
		"strategy":   string(e.Strategy),
	}
	if e.StatusCode > 0 {
		metadata["upstream_status"] = e.StatusCode
	}
	return goerrors.New(e.Error(), category).
		WithCode(serviceHTTPStatus(category)).
		WithTextCode(textCode).
		WithMetadata(metadata)
}

func sentinelForKind(kind ErrorKind) error {
	switch kind {
	case ErrorKindNoIdentifierConfigured:
		return ErrNoIdentifierConfigured
	case ErrorKindNetwork:
		return ErrNetwork
	case ErrorKindAuth:
		return ErrAuth
	case ErrorKindNotFound:
		return ErrNotFound
	case ErrorKindPreferenceUnavailable:
		return ErrPreferenceUnavailable
	case ErrorKindNotWired:
		return ErrNotWired
	default:
		return errors.New("core: resolution failed")
	}
}

func serviceErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var resolutionErr *ResolutionError
	if errors.As(err, &resolutionErr) {
		return resolutionErr.ToServiceError()
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureServiceErrorEnvelope(richErr)
	}

	if errors.Is(err, ErrDevModeDisabled) {
		return newServiceError(err.Error(), goerrors.CategoryOperation, ServiceErrorDevModeDisabled)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "not configured"), strings.Contains(msg, "is nil"):
		return newServiceError(err.Error(), goerrors.CategoryInternal, ServiceErrorInternal)
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"):
		return newServiceError(err.Error(), goerrors.CategoryBadInput, ServiceErrorBadInput)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureServiceErrorEnvelope(mapped)
}

func newServiceError(message string, category goerrors.Category, textCode string) *goerrors.Error {
	return ensureServiceErrorEnvelope(
		goerrors.New(message, category).
			WithTextCode(textCode),
	)
}

func ensureServiceErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = serviceHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultServiceTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultServiceTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return ServiceErrorBadInput
	case goerrors.CategoryNotFound:
		return ServiceErrorNotFound
	case goerrors.CategoryAuth, goerrors.CategoryAuthz:
		return ServiceErrorAuth
	case goerrors.CategoryExternal:
		return ServiceErrorNetwork
	default:
		return ServiceErrorInternal
	}
}

func serviceHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryExternal:
		return http.StatusBadGateway
	case goerrors.CategoryOperation:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
