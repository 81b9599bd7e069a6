package auth

import (
	"context"
	"strings"
)

// TokenProvider returns the bearer token to attach to outgoing requests.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// TokenFunc adapts a plain function to TokenProvider.
type TokenFunc func(ctx context.Context) (string, error)

func (f TokenFunc) Token(ctx context.Context) (string, error) {
	return f(ctx)
}

type staticToken string

// Static returns a provider that always yields token.
func Static(token string) TokenProvider {
	return staticToken(strings.TrimSpace(token))
}

func (s staticToken) Token(context.Context) (string, error) {
	if s == "" {
		return "", ErrEmptyToken
	}
	return string(s), nil
}

// BearerHeader formats the Authorization header value for token.
func BearerHeader(token string) string {
	return "Bearer " + token
}
