package handlers

import (
	"errors"

	"github.com/danielgtaylor/huma/v2"

	domain "github.com/donaldgifford/smartsell/pkg/types"
)

// StatusResponse is the health endpoint response body.
type StatusResponse struct {
	Status string `json:"status" example:"ok"`
}

// apiError maps engine and session errors onto HTTP problems. Requests that
// name something unknown get 404; requests the data cannot satisfy get 422.
func apiError(op string, err error) error {
	var (
		fe *domain.InvalidFilterError
		se *domain.SchemaError
	)

	switch {
	case errors.Is(err, domain.ErrDatasetNotFound),
		errors.Is(err, domain.ErrSessionNotFound):
		return huma.Error404NotFound(err.Error())
	case errors.As(err, &fe):
		return huma.Error422UnprocessableEntity(err.Error(), &huma.ErrorDetail{
			Location: fe.Field,
			Message:  fe.Reason,
		})
	case errors.As(err, &se),
		errors.Is(err, domain.ErrUnknownColumn),
		errors.Is(err, domain.ErrNotNumeric),
		errors.Is(err, domain.ErrNotCategorical),
		errors.Is(err, domain.ErrUnknownReducer),
		errors.Is(err, domain.ErrRoleUnmapped):
		return huma.Error422UnprocessableEntity(err.Error())
	default:
		return huma.Error500InternalServerError(op + ": " + err.Error())
	}
}
