package user

import "context"

type ctxKey int

const principalKey ctxKey = iota

// NewContext returns a copy of ctx carrying the authenticated principal.
// The HTTP layer resolves the principal once per request and threads it
// through explicitly; no component reads ambient global state.
func NewContext(ctx context.Context, usr User) context.Context {
	return context.WithValue(ctx, principalKey, usr)
}

// FromContext returns the authenticated principal, if any.
func FromContext(ctx context.Context) (User, bool) {
	usr, ok := ctx.Value(principalKey).(User)
	return usr, ok
}
