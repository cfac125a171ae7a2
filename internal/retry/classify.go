// VenueScout - Venue Discovery and Recommendation Service
// Copyright 2026 VenueScout contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/venuescout/venuescout

package retry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"syscall"
)

// defaultRetryableStatuses is the status allow-list applied when an adapter
// does not configure its own: rate limiting plus transient server errors.
var defaultRetryableStatuses = []int{
	http.StatusTooManyRequests,
	http.StatusInternalServerError,
	http.StatusBadGateway,
	http.StatusServiceUnavailable,
	http.StatusGatewayTimeout,
}

// HTTPError carries a non-2xx upstream response so the retrier can classify
// it by status code. Provider adapters return it for any unexpected status.
type HTTPError struct {
	StatusCode int
	Provider   string
	Body       string
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("%s returned status %d", e.Provider, e.StatusCode)
	}
	return fmt.Sprintf("upstream returned status %d", e.StatusCode)
}

// NewHTTPError builds an HTTPError for a provider response.
func NewHTTPError(provider string, statusCode int, body string) *HTTPError {
	return &HTTPError{StatusCode: statusCode, Provider: provider, Body: body}
}

// IsRetryable reports whether err matches the transient allow-list:
// an HTTPError with a status in retryableStatuses (nil selects the default
// list), or a transport-level failure (timeout, connection refused/reset,
// DNS failure). Context cancellation is never retryable; the caller gave up.
func IsRetryable(err error, retryableStatuses []int) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		if retryableStatuses == nil {
			retryableStatuses = defaultRetryableStatuses
		}
		for _, status := range retryableStatuses {
			if httpErr.StatusCode == status {
				return true
			}
		}
		return false
	}

	return isTransportError(err)
}

// isTransportError matches the transport-level categories that indicate a
// transient network condition rather than a malformed request.
func isTransportError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}

	return false
}
