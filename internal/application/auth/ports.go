package auth

import (
	"context"
	"time"

	domuser "github.com/escabi/escabiapi/internal/domain/user"
)

type PasswordHasher interface {
	Hash(password string) (string, error)
	// Compare returns nil when password matches hash.
	Compare(hash, password string) error
}

type TokenIssuer interface {
	Issue(id domuser.Identity) (token string, expiresAt time.Time, err error)
}

// RateLimiter counts attempts per key inside a fixed window.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type IDGenerator interface {
	NewID() string
}
