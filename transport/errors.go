package transport

import (
	"context"
	"errors"
	"net/http"

	goerrors "github.com/goliatone/go-errors"

	"github.com/innovatetogether/go-innovate/core"
)

// requestFailure wraps cause, if any, in the go-errors envelope used for a
// request that produced no response to classify. Timeouts carry 504 and
// timeout=true so callers can tell them apart from refused connections.
func requestFailure(cause error, category goerrors.Category, message string, metadata map[string]any) error {
	var rich *goerrors.Error
	if cause == nil {
		rich = goerrors.New(message, category)
	} else {
		rich = goerrors.Wrap(cause, category, message)
	}

	fields := map[string]any{"adapter": KindREST}
	for key, value := range metadata {
		fields[key] = value
	}
	code := failureStatus(category)
	if cause != nil && errors.Is(cause, context.DeadlineExceeded) {
		code = http.StatusGatewayTimeout
		fields["timeout"] = true
	}
	return rich.
		WithCode(code).
		WithTextCode(failureTextCode(category)).
		WithMetadata(fields)
}

func failureStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput:
		return http.StatusBadRequest
	case goerrors.CategoryExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func failureTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput:
		return core.ServiceErrorBadInput
	case goerrors.CategoryExternal:
		return core.ServiceErrorNetwork
	default:
		return core.ServiceErrorInternal
	}
}
