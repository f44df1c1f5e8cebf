// Package jwt mints and verifies the HS256 session tokens that carry the
// canonical SessionIdentity throughout the system.
package jwt

import (
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"github.com/restaurant-bff/core/internal/domain"
)

// Claims is the JWT payload. sessionId is the canonical identity; every
// ownership check downstream compares against it and nothing else.
type Claims struct {
	SessionID string  `json:"sessionId"`
	UserID    *string `json:"userId,omitempty"`
	jwtlib.RegisteredClaims
}

// Verifier signs and parses session tokens against a fixed secret.
type Verifier struct {
	secret []byte
}

// New builds a Verifier bound to the given secret.
func New(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Sign mints an HS256 JWT carrying {sessionId, userId?, iat, exp}, with
// exp set ttl after now.
func (v *Verifier) Sign(sessionID string, userID *string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		SessionID: sessionID,
		UserID:    userID,
		RegisteredClaims: jwtlib.RegisteredClaims{
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString(v.secret)
}

// Parse validates a token string and returns the SessionIdentity it carries.
func (v *Verifier) Parse(tokenStr string) (*domain.SessionIdentity, error) {
	token, err := jwtlib.ParseWithClaims(tokenStr, &Claims{}, func(t *jwtlib.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.SessionID == "" {
		return nil, fmt.Errorf("token missing sessionId claim")
	}
	return &domain.SessionIdentity{SessionID: claims.SessionID, UserID: claims.UserID}, nil
}
