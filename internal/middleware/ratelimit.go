package middleware

import (
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/linkpulse/linkpulse/internal/handlers"
	"github.com/linkpulse/linkpulse/internal/ratelimit"
	"go.uber.org/zap"
)

// CreationRateLimiter returns a huma middleware enforcing the creation
// windows on operations that carry ratelimit.MetadataKey. Every exceeded
// window is reported to the client; one is enough to deny.
func CreationRateLimiter(
	api huma.API,
	limiter *ratelimit.FixedWindowLimiter,
	logger *zap.Logger,
) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		if !limitedOperation(ctx) {
			next(ctx)

			return
		}

		meta := handlers.RequestMetaFromContext(ctx.Context())

		allowed, exceeded, err := limiter.Check(ctx.Context(), meta.Identity)
		if err != nil {
			logger.Error("rate limit check failed",
				zap.String("identity", meta.Identity),
				zap.Error(err),
			)
			_ = huma.WriteErr(api, ctx, http.StatusInternalServerError, "internal server error", err)

			return
		}

		if !allowed {
			logger.Info("creation rate limit exceeded",
				zap.String("identity", meta.Identity),
				zap.String("window", exceeded[0].Window.Name),
				zap.Int64("count", exceeded[0].Count),
			)

			details := make([]error, 0, len(exceeded))
			for _, e := range exceeded {
				details = append(details, errors.New(e.Window.Message))
			}

			_ = huma.WriteErr(api, ctx, http.StatusTooManyRequests,
				exceeded[0].Window.Message, details...)

			return
		}

		next(ctx)
	}
}

func limitedOperation(ctx huma.Context) bool {
	op := ctx.Operation()
	if op == nil || op.Metadata == nil {
		return false
	}

	limited, ok := op.Metadata[ratelimit.MetadataKey].(bool)

	return ok && limited
}
