package httpkit

import (
	"net/http"
	"time"

	"bioreactor/internal/platform/config"
	"bioreactor/internal/platform/net/middleware"
)

// CommonStack is the per-API middleware slice; cfg supplies HEARTBEAT, TIMEOUT, CORS_ORIGINS and THROTTLE.
// The heartbeat path is matched against the full request path
func CommonStack(cfg config.Conf) []func(http.Handler) http.Handler {
	stack := []func(http.Handler) http.Handler{
		middleware.Heartbeat(cfg.MayString("HEARTBEAT", "/api/v1/ping")),
		middleware.CORS(middleware.CORSOptions{
			AllowedOrigins: cfg.MayCSV("CORS_ORIGINS", nil),
			MaxAge:         300,
		}),
	}
	stack = append(stack, middleware.Defaults(cfg.MayDuration("TIMEOUT", 30*time.Second))...)
	if n := cfg.MayInt("RATE_LIMIT", 0); n > 0 {
		stack = append(stack, middleware.RateLimit(n, cfg.MayDuration("RATE_WINDOW", time.Minute)))
	}
	if n := cfg.MayInt("THROTTLE", 0); n > 0 {
		stack = append(stack, middleware.Throttle(n))
	}
	return stack
}
