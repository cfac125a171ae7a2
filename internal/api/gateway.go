// VenueScout - Venue Discovery and Recommendation Service
// Copyright 2026 VenueScout contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/venuescout/venuescout

package api

import (
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/venuescout/venuescout/internal/config"
	"github.com/venuescout/venuescout/internal/logging"
	"github.com/venuescout/venuescout/internal/metrics"
	"github.com/venuescout/venuescout/internal/ratelimit"
)

// Gateway applies the sliding-window limiter as stacked admission gates.
// Every route passes the global gate first; expensive routes add a stricter
// per-route gate. Identifiers are scoped ("global:<ip>", "<route>:<ip>") so
// one client's search burst does not consume another client's budget.
type Gateway struct {
	limiter *ratelimit.Limiter
	cfg     config.RateLimitConfig
}

// NewGateway creates the admission gateway over a shared limiter.
func NewGateway(limiter *ratelimit.Limiter, cfg config.RateLimitConfig) *Gateway {
	return &Gateway{limiter: limiter, cfg: cfg}
}

// Limiter exposes the underlying limiter for stats reporting.
func (g *Gateway) Limiter() *ratelimit.Limiter {
	return g.limiter
}

// Global returns the middleware for the outer gate applied to all API
// routes.
func (g *Gateway) Global() func(http.Handler) http.Handler {
	return g.gate("global", g.cfg.GlobalLimit, g.cfg.GlobalWindow)
}

// Route returns the middleware for a stricter inner gate on one route.
func (g *Gateway) Route(route string, limit int, window time.Duration) func(http.Handler) http.Handler {
	return g.gate(route, limit, window)
}

func (g *Gateway) gate(scope string, limit int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if g.cfg.Disabled {
				next.ServeHTTP(w, r)
				return
			}

			identifier := scope + ":" + clientKey(r)
			result := g.limiter.Check(identifier, limit, window)

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

			if !result.Allowed {
				metrics.RateLimitDecisions.WithLabelValues(scope, "denied").Inc()
				logging.Ctx(r.Context()).Warn().
					Str("scope", scope).
					Str("client", clientKey(r)).
					Msg("request rejected by admission gate")

				w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfterSeconds()))
				NewResponseWriter(w, r).Error(http.StatusTooManyRequests, ErrCodeTooManyRequests,
					"rate limit exceeded, retry after "+strconv.Itoa(result.RetryAfterSeconds())+"s")
				return
			}

			metrics.RateLimitDecisions.WithLabelValues(scope, "allowed").Inc()
			next.ServeHTTP(w, r)
		})
	}
}

// clientKey identifies the caller by IP. RealIP middleware has already
// rewritten RemoteAddr from X-Forwarded-For when present.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
