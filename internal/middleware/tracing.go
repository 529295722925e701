package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// Callers may supply their own id; it is honored so a trace can span the
// mobile app, the gateway and this service.
const traceIDHeader = "X-Request-ID"

type traceIDKey struct{}

// Tracing assigns every request a trace id, reflects it in the response
// header and stores it on the context for the logging middleware.
func Tracing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(traceIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(traceIDHeader, id)

		r = r.WithContext(context.WithValue(r.Context(), traceIDKey{}, id))
		next.ServeHTTP(w, r)
	})
}

// TraceIDFromContext returns the request's trace id, or "" outside a
// traced request.
func TraceIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(traceIDKey{}).(string)
	return id
}
