package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// refreshMargin is how long before expiry a cached token is replaced.
const refreshMargin = 30 * time.Second

// Claims is the payload of tokens minted by Signer.
type Claims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Signer mints HS256 bearer tokens and caches them until near expiry.
type Signer struct {
	secret  []byte
	subject string
	role    string
	ttl     time.Duration
	now     func() time.Time

	mu      sync.Mutex
	token   string
	expires time.Time
}

// SignerOption configures a Signer.
type SignerOption func(*Signer)

// WithRole adds a role claim to every token.
func WithRole(role string) SignerOption {
	return func(s *Signer) { s.role = role }
}

// WithClock overrides the time source, used by tests.
func WithClock(now func() time.Time) SignerOption {
	return func(s *Signer) {
		if now != nil {
			s.now = now
		}
	}
}

// NewSigner creates a signer for subject. A non-positive ttl defaults to 15 minutes.
func NewSigner(secret, subject string, ttl time.Duration, opts ...SignerOption) (*Signer, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	s := &Signer{
		secret:  []byte(secret),
		subject: subject,
		ttl:     ttl,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Token returns the cached token or mints a new one.
func (s *Signer) Token(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if s.token != "" && now.Add(refreshMargin).Before(s.expires) {
		return s.token, nil
	}

	expires := now.Add(s.ttl)
	claims := Claims{
		Role: s.role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", errors.Join(ErrSignToken, err)
	}

	s.token = signed
	s.expires = expires
	return signed, nil
}

// Verify parses a token minted with the same secret. Intended for tests and
// local tooling that needs to inspect what the client sends.
func (s *Signer) Verify(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, err
	}
	return claims, nil
}
