package command

import (
	"net/http"

	goerrors "github.com/goliatone/go-errors"

	"github.com/innovatetogether/go-innovate/core"
)

// missingService reports a handler built without its backing service.
func missingService(handler string, service string) error {
	return goerrors.New("command: "+service+" is required", goerrors.CategoryInternal).
		WithCode(http.StatusInternalServerError).
		WithTextCode(core.ServiceErrorInternal).
		WithMetadata(map[string]any{"handler": handler})
}

func invalidField(field string, message string) error {
	return goerrors.NewValidation("command: validation failed", goerrors.FieldError{
		Field:   field,
		Message: message,
	}).
		WithCode(http.StatusBadRequest).
		WithTextCode(core.ServiceErrorBadInput).
		WithSeverity(goerrors.SeverityError)
}
