package handlers

import "context"

type requestMetaKey struct{}

// RequestMeta holds per-request attributes extracted by middleware:
// client address, user agent, and the identity set by the auth gateway.
type RequestMeta struct {
	ClientIP  string
	UserAgent string
	Referrer  string
	Identity  string
}

// ContextWithRequestMeta adds request metadata to the context.
func ContextWithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

// RequestMetaFromContext extracts request metadata from the context.
func RequestMetaFromContext(ctx context.Context) RequestMeta {
	if v, ok := ctx.Value(requestMetaKey{}).(RequestMeta); ok {
		return v
	}

	return RequestMeta{}
}
