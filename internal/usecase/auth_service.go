package usecase

import (
	"crypto/subtle"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthService issues and verifies bearer tokens for the mutating endpoints.
// With an empty secret the middleware stays disabled and all routes are open.
type AuthService struct {
	Secret string
	APIKey string
	TTL    time.Duration
}

func (s *AuthService) Enabled() bool { return s.Secret != "" }

func (s *AuthService) ttl() time.Duration {
	if s.TTL == 0 {
		return 24 * time.Hour
	}
	return s.TTL
}

func (s *AuthService) Login(apiKey string) (string, error) {
	if s.APIKey == "" || subtle.ConstantTimeCompare([]byte(apiKey), []byte(s.APIKey)) != 1 {
		return "", ErrBadRequest("invalid api key")
	}
	claims := jwt.MapClaims{
		"sub": "api-client",
		"exp": time.Now().Add(s.ttl()).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.Secret))
}

func (s *AuthService) Verify(token string) (string, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		return []byte(s.Secret), nil
	})
	if err != nil || !parsed.Valid {
		return "", ErrBadRequest("invalid token")
	}
	m, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrBadRequest("invalid token")
	}
	sub, _ := m["sub"].(string)
	return sub, nil
}
