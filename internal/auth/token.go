package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/ErlanBelekov/stockbetting/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

// Token is a signed, time-limited credential for one user.
type Token struct {
	Value     string
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Verification is the outcome of TokenService.Verify. UserID is set only
// when Valid is true.
type Verification struct {
	Valid  bool
	UserID string
}

// TokenService issues and verifies HS256 JWTs. It holds no mutable state and
// is safe for concurrent use.
type TokenService struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

type Option func(*TokenService)

// WithClock overrides time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *TokenService) { s.now = now }
}

func NewTokenService(key []byte, ttl time.Duration, opts ...Option) (*TokenService, error) {
	if len(key) == 0 {
		return nil, errors.New("token service: empty signing key")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("token service: ttl must be positive, got %s", ttl)
	}
	s := &TokenService{key: key, ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Issue signs a token for u. IssuedAt is truncated to whole seconds so the
// returned times match what is encoded in the token.
func (s *TokenService) Issue(u domain.User) (Token, error) {
	issuedAt := s.now().Truncate(time.Second)
	expiresAt := issuedAt.Add(s.ttl)

	claims := jwt.RegisteredClaims{
		Subject:   u.ID,
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return Token{}, fmt.Errorf("sign jwt: %w", err)
	}

	return Token{
		Value:     signed,
		Subject:   u.ID,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}

// Verify fails closed: any parse error, foreign algorithm, bad signature,
// missing or elapsed expiry, or empty subject yields Valid=false.
// There is no leeway; now >= exp is expired.
func (s *TokenService) Verify(raw string) Verification {
	claims := &jwt.RegisteredClaims{}
	tok, err := jwt.ParseWithClaims(raw, claims,
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return s.key, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || tok == nil || !tok.Valid || claims.Subject == "" {
		return Verification{}
	}
	return Verification{Valid: true, UserID: claims.Subject}
}

// TTL reports the configured token lifetime.
func (s *TokenService) TTL() time.Duration { return s.ttl }
