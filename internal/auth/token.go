package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ziadkadry99/chatshell/internal/session"
)

// Claims is the payload the chat backend signs into its session cookie.
type Claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// TokenChecker verifies the stored session token locally. It needs the
// backend's HMAC secret and trusts the user id in the claims.
type TokenChecker struct {
	secret []byte
	token  TokenSource
	leeway time.Duration
	now    func() time.Time
}

var _ session.Checker = (*TokenChecker)(nil)

// NewTokenChecker creates a checker that validates HS256 tokens with secret.
func NewTokenChecker(secret string, token TokenSource) *TokenChecker {
	return &TokenChecker{
		secret: []byte(secret),
		token:  token,
		leeway: 30 * time.Second,
		now:    time.Now,
	}
}

// Check implements session.Checker.
func (c *TokenChecker) Check(ctx context.Context) (*session.Identity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := c.token()
	if err != nil {
		return nil, fmt.Errorf("reading session token: %w", err)
	}
	if raw == "" {
		return nil, ErrUnauthenticated
	}

	claims, err := c.parse(raw)
	if err != nil {
		return nil, err
	}

	id := &session.Identity{ID: claims.UserID}
	if claims.IssuedAt != nil {
		id.CreatedAt = claims.IssuedAt.Time
	}
	return id, nil
}

func (c *TokenChecker) parse(raw string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(c.leeway),
		jwt.WithTimeFunc(c.now),
	)

	claims := &Claims{}
	_, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	})
	switch {
	case errors.Is(err, jwt.ErrTokenExpired), errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	case err != nil:
		return nil, fmt.Errorf("%w: malformed token: %v", ErrUnauthenticated, err)
	}

	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: token has no userId claim", ErrUnauthenticated)
	}
	return claims, nil
}
