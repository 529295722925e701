package auth

import "context"

type accountIDKey struct{}

func ContextWithAccountID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, accountIDKey{}, id)
}

// AccountIDFromContext returns the authenticated caller's own account id,
// as placed by the auth middleware.
func AccountIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(accountIDKey{}).(int64)
	return id, ok
}
