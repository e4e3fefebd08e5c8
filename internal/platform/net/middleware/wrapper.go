// Package middleware adapts chi middleware and adds the service's own request middleware
package middleware

import (
	"compress/flate"
	"net/http"
	"time"

	perr "bioreactor/internal/platform/errors"
	"bioreactor/internal/platform/logger"
	pnet "bioreactor/internal/platform/net"
	phttp "bioreactor/internal/platform/net/http"
	pstrings "bioreactor/internal/platform/strings"

	chimw "github.com/go-chi/chi/v5/middleware"
	chicors "github.com/go-chi/cors"
	"github.com/go-chi/httprate"
)

// Middleware is the stdlib middleware shape
type Middleware = func(http.Handler) http.Handler

// RequestID accepts or mints X-Request-ID
func RequestID() Middleware { return chimw.RequestID }

// RealIP trusts X-Forwarded-For / X-Real-IP
func RealIP() Middleware { return chimw.RealIP }

// NoCache disables client and proxy caching; batch views are computed per request
func NoCache() Middleware { return chimw.NoCache }

// Timeout cancels the request context after d
func Timeout(d time.Duration) Middleware { return chimw.Timeout(d) }

// Heartbeat answers GET path with 200 for load balancers
func Heartbeat(path string) Middleware { return chimw.Heartbeat(path) }

// Compress gzips/deflates responses at level
func Compress(level int) Middleware { return chimw.NewCompressor(level).Handler }

// Throttle caps in-flight requests
func Throttle(limit int) Middleware { return chimw.Throttle(limit) }

// RateLimit allows n requests per window for each client IP; excess requests get a 429 envelope
func RateLimit(n int, window time.Duration) Middleware {
	if window <= 0 {
		window = time.Minute
	}
	return httprate.Limit(n, window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			logger.C(r.Context()).Debug().Str("remote", r.RemoteAddr).Msg("rate limited")
			phttp.RespondError(w, r, perr.New(perr.ErrorCodeRateLimited, "too many requests"))
		}),
	)
}

// Scope copies the request id into the logger context so logger.C picks it up
func Scope(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if id := pnet.RequestID(ctx); id != "" {
			w.Header().Set(chimw.RequestIDHeader, id)
			ctx = logger.WithRequest(ctx, id)
		}
		if b := pnet.BatchID(ctx); b != "" {
			ctx = logger.WithBatch(ctx, b)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// CORSOptions is the subset of go-chi/cors the API exposes
type CORSOptions struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

// CORS applies go-chi/cors; the API is read mostly so GET, POST and OPTIONS are the defaults
func CORS(o CORSOptions) Middleware {
	return chicors.Handler(chicors.Options{
		AllowedOrigins:   pstrings.IfEmpty(o.AllowedOrigins, []string{"*"}),
		AllowedMethods:   pstrings.IfEmpty(o.AllowedMethods, []string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		AllowedHeaders:   pstrings.IfEmpty(o.AllowedHeaders, []string{"Accept", "Content-Type", chimw.RequestIDHeader}),
		ExposedHeaders:   []string{chimw.RequestIDHeader},
		AllowCredentials: o.AllowCredentials,
		MaxAge:           o.MaxAge,
	})
}

// Defaults is the stack every API router starts with, outermost first
func Defaults(timeout time.Duration) []Middleware {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return []Middleware{
		RealIP(),
		RequestID(),
		Scope,
		RecoverJSON,
		AccessLog(AccessLogOptions{Slow: time.Second}),
		Timeout(timeout),
		Compress(flate.DefaultCompression),
		NoCache(),
	}
}
