package adapters

import "context"

type userIDKey struct{}

// WithUserID attaches an authenticated user to the request context. The
// session/auth middleware owning authentication lives outside this service;
// it only needs to call this before handing the request down.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// ContextIdentity reads the authenticated user from the request context.
// A missing value means guest checkout.
type ContextIdentity struct{}

func NewContextIdentity() *ContextIdentity {
	return &ContextIdentity{}
}

func (ContextIdentity) CurrentUserID(ctx context.Context) *int64 {
	if id, ok := ctx.Value(userIDKey{}).(int64); ok {
		return &id
	}
	return nil
}
