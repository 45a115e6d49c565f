// Package security issues and verifies access tokens and hashes passwords.
package security

import (
	"errors"
	"fmt"
	"time"

	domuser "github.com/escabi/escabiapi/internal/domain/user"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("security: invalid token")

// Claims is the access token payload.
type Claims struct {
	UserID      string   `json:"user_id"`
	Username    string   `json:"username,omitempty"`
	Roles       []string `json:"roles"`
	AgeVerified bool     `json:"age_verified"`
	jwt.RegisteredClaims
}

// JWT signs HS256 tokens with a shared secret.
type JWT struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewJWT(secret string, ttl time.Duration) *JWT {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &JWT{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (j *JWT) Issue(id domuser.Identity) (string, time.Time, error) {
	now := j.now()
	exp := now.Add(j.ttl)
	roles := make([]string, 0, len(id.Roles))
	for _, r := range id.Roles {
		roles = append(roles, string(r))
	}
	claims := Claims{
		UserID:      id.UserID,
		Username:    id.Username,
		Roles:       roles,
		AgeVerified: id.AgeVerified,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("security: sign token: %w", err)
	}
	return signed, exp, nil
}

// Verify parses and validates a token, returning the identity it carries.
func (j *JWT) Verify(token string) (domuser.Identity, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return j.secret, nil
		},
		jwt.WithTimeFunc(j.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid {
		return domuser.Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.UserID == "" {
		return domuser.Identity{}, fmt.Errorf("%w: user_id missing", ErrInvalidToken)
	}

	id := domuser.Identity{
		UserID:      claims.UserID,
		Username:    claims.Username,
		AgeVerified: claims.AgeVerified,
	}
	if id.Username == "" {
		id.Username = claims.Subject
	}
	for _, r := range claims.Roles {
		id.Roles = append(id.Roles, domuser.Role(r))
	}
	return id, nil
}
