package upstream

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/sony/gobreaker"

	xhttp "CoinSense/pkg/http"
)

var (
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrRateLimited         = errors.New("upstream rate limited")
	ErrNotFound            = errors.New("upstream resource not found")
	ErrUnauthorized        = errors.New("upstream rejected credentials")
)

// classify maps a transport error to one of the sentinels and reports whether
// it is worth retrying. The returned kind labels metrics.
func classify(err error) (mapped error, kind string, retry bool) {
	if err == nil {
		return nil, "", false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err, "timeout", false
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrUpstreamUnavailable, "breaker_open", false
	}

	var se *xhttp.StatusError
	if errors.As(err, &se) {
		switch {
		case se.Code == http.StatusNotFound:
			return ErrNotFound, "not_found", false
		case se.Code == http.StatusUnauthorized || se.Code == http.StatusForbidden:
			return ErrUnauthorized, "unauthorized", false
		case se.Code == http.StatusTooManyRequests:
			return ErrRateLimited, "rate_limited", false
		case se.Code >= 500:
			return ErrUpstreamUnavailable, "server_error", true
		default:
			return err, "client_error", false
		}
	}
	return ErrUpstreamUnavailable, "transport", true
}

// countsAsFailure tells the breaker which errors mean the provider is unhealthy.
// Caller mistakes such as 404 or 401 keep the breaker closed.
func countsAsFailure(err error) bool {
	if err == nil {
		return false
	}
	_, _, retry := classify(err)
	return retry
}

func wrap(provider, endpoint string, sentinel, cause error) error {
	if sentinel == cause {
		return fmt.Errorf("%s %s: %w", provider, endpoint, sentinel)
	}
	return fmt.Errorf("%s %s: %w: %v", provider, endpoint, sentinel, cause)
}
