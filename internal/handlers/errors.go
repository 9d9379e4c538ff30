package handlers

import (
	"net/http"

	"github.com/pkg/errors"

	"dbfixture/internal/dataset"
	"dbfixture/internal/datatype"
	"dbfixture/internal/graph"
	"dbfixture/internal/services"
)

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var (
		reqErr    *services.RequestError
		noTable   *dataset.NoSuchTableError
		noColumn  *dataset.NoSuchColumnError
		ambiguous *dataset.AmbiguousTableNameError
		cast      *datatype.TypeCastError
		token     *dataset.UnmatchedTokenError
		cycle     *graph.CyclicDependencyError
	)
	switch {
	case errors.As(err, &reqErr), errors.As(err, &noColumn), errors.As(err, &ambiguous),
		errors.As(err, &cast), errors.As(err, &token):
		return http.StatusBadRequest
	case errors.As(err, &noTable):
		return http.StatusNotFound
	case errors.As(err, &cycle):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
