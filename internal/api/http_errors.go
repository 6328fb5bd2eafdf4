package api

import (
	"errors"
	"net/http"

	"github.com/hugo-lorenzo-mato/conductor/internal/core"
)

func httpStatusForDomainError(err error) (int, bool) {
	var domErr *core.DomainError
	if !errors.As(err, &domErr) || domErr == nil {
		return 0, false
	}

	switch domErr.Category {
	case core.ErrCatValidation:
		return http.StatusBadRequest, true
	case core.ErrCatNotFound:
		return http.StatusNotFound, true
	case core.ErrCatConflict:
		return http.StatusConflict, true
	default:
		return http.StatusInternalServerError, true
	}
}

// respondDomainError maps a domain error onto an HTTP status. Errors
// without a domain category become 500s.
func respondDomainError(w http.ResponseWriter, err error) {
	status, ok := httpStatusForDomainError(err)
	if !ok {
		status = http.StatusInternalServerError
	}
	respondError(w, status, err.Error())
}
