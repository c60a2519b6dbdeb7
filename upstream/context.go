package upstream

import (
	"context"
	"net/http"
)

// RequestIDHeader carries the request id from the gateway to the services.
const RequestIDHeader = "X-Request-Id"

type requestHeaderKey struct{}

type requestIDKey struct{}

// Headers that describe the inbound connection or body rather than the caller.
var skippedHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
	"Content-Length",
	"Content-Type",
	"Accept-Encoding",
	"Host",
}

// SetRequestHeaderToContext stores the inbound gateway request headers so that every
// upstream call made with ctx forwards them.
func SetRequestHeaderToContext(ctx context.Context, h http.Header) context.Context {
	forwarded := h.Clone()
	for _, k := range skippedHeaders {
		forwarded.Del(k)
	}
	return context.WithValue(ctx, requestHeaderKey{}, forwarded)
}

func copyRequestHeader(ctx context.Context, dst http.Header) {
	h, ok := ctx.Value(requestHeaderKey{}).(http.Header)
	if !ok {
		return
	}
	for k, vs := range h {
		for _, v := range vs {
			dst.Add(k, v)
		}
	}
}

func SetRequestIDToContext(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
