package auth

import (
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/paddybishop/draw2real-magic-world/internal/config"
	"github.com/paddybishop/draw2real-magic-world/internal/usercontext"
	"go.uber.org/fx"
)

var (
	ErrNotConfigured = errors.New("auth_not_configured")
	ErrInvalidToken  = errors.New("invalid_token")
)

// Verifier validates bearer tokens issued by the external identity provider.
// The service never mints tokens; it only checks the shared-secret signature
// and extracts the subject.
type Verifier struct {
	secret []byte
}

func NewVerifier(cfg config.Config) *Verifier {
	secret := strings.TrimSpace(cfg.AuthJWTSecret)
	if secret == "" {
		return &Verifier{}
	}
	return &Verifier{secret: []byte(secret)}
}

// Verify parses and validates token, returning the authenticated user.
func (v *Verifier) Verify(token string) (usercontext.User, error) {
	if v == nil || len(v.secret) == 0 {
		return usercontext.User{}, ErrNotConfigured
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return usercontext.User{}, ErrInvalidToken
	}

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return v.secret, nil
	})
	if err != nil || !parsed.Valid {
		return usercontext.User{}, ErrInvalidToken
	}

	sub, _ := claims["sub"].(string)
	sub = strings.TrimSpace(sub)
	if sub == "" {
		return usercontext.User{}, ErrInvalidToken
	}
	email, _ := claims["email"].(string)

	return usercontext.User{ID: sub, Email: strings.TrimSpace(email)}, nil
}

// Module provides the token verifier.
var Module = fx.Module("auth",
	fx.Provide(NewVerifier),
)
