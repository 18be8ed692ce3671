package query

import (
	"net/http"

	goerrors "github.com/goliatone/go-errors"

	"github.com/innovatetogether/go-innovate/core"
)

// missingReader reports a query built without its reader.
func missingReader(handler string, reader string) error {
	return goerrors.New("query: "+reader+" is required", goerrors.CategoryInternal).
		WithCode(http.StatusInternalServerError).
		WithTextCode(core.ServiceErrorInternal).
		WithMetadata(map[string]any{"handler": handler})
}
