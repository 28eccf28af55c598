package api

import (
	"errors"

	"CoinSense/internal/service/rapidtwitter"
	"CoinSense/internal/service/upstream"
	"CoinSense/internal/usecase"
	xhttp "CoinSense/pkg/http"
)

// toAppError maps use case and upstream failures onto HTTP errors.
func toAppError(err error) *xhttp.AppError {
	var appErr *xhttp.AppError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, usecase.ErrCoinNotFound):
		return xhttp.NotFoundError(usecase.MsgCoinNotFound).WithError(err)
	case errors.Is(err, usecase.ErrNoResults), errors.Is(err, upstream.ErrNotFound):
		return xhttp.NotFoundError("nothing found").WithError(err)
	case errors.Is(err, usecase.ErrUnknownIntent):
		return xhttp.UnprocessableError(usecase.MsgUnknownIntent).WithError(err)
	case errors.Is(err, rapidtwitter.ErrInvalidUsername):
		return xhttp.BadRequestError("invalid username").WithError(err)
	case errors.Is(err, upstream.ErrRateLimited):
		return xhttp.TooManyRequestsError(usecase.MsgRateLimited).WithError(err)
	case errors.Is(err, usecase.ErrHistoryUnavailable):
		return xhttp.ServiceUnavailableError("decision history is not enabled").WithError(err)
	case errors.Is(err, upstream.ErrUpstreamUnavailable), errors.Is(err, upstream.ErrUnauthorized):
		return xhttp.ServiceUnavailableError(usecase.MsgUnavailable).WithError(err)
	default:
		return xhttp.InternalError("something went wrong").WithError(err)
	}
}
