package ports

import "context"

type IdentityProvider interface {
	UserID(ctx context.Context) (string, error)
	BearerToken(ctx context.Context) (string, error)
}
