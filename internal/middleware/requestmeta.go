package middleware

import (
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/linkpulse/linkpulse/internal/handlers"
)

// IdentityHeader carries the caller's identity, set by the auth gateway
// in front of this service.
const IdentityHeader = "X-User-Email"

// RequestMeta is a middleware that adds client IP, user agent, referrer,
// and caller identity to the request context.
func RequestMeta(_ huma.API) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		ip := extractClientIP(ctx)

		meta := handlers.RequestMeta{
			ClientIP:  ip,
			UserAgent: ctx.Header("User-Agent"),
			Referrer:  ctx.Header("Referer"),
			Identity:  extractIdentity(ctx, ip),
		}

		newCtx := handlers.ContextWithRequestMeta(ctx.Context(), meta)
		ctx = huma.WithContext(ctx, newCtx)

		next(ctx)
	}
}

// extractIdentity prefers the gateway-provided identity header and falls
// back to the client address so anonymous traffic is still rate-limited
// per source.
func extractIdentity(ctx huma.Context, clientIP string) string {
	if identity := strings.TrimSpace(ctx.Header(IdentityHeader)); identity != "" {
		return identity
	}

	return clientIP
}

func extractClientIP(ctx huma.Context) string {
	// X-Forwarded-For may contain multiple addresses; the first entry is
	// closest to the origin.
	if xff := ctx.Header("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}

		return strings.TrimSpace(xff)
	}

	if xri := ctx.Header("X-Real-IP"); xri != "" {
		return xri
	}

	host := ctx.Host()
	if idx := strings.LastIndex(host, ":"); idx != -1 {
		return host[:idx]
	}

	return host
}
