// Package auth supplies bearer tokens to the realtime transport and the REST
// gateway client.
//
// Both consumers depend on the TokenProvider interface only. Static wraps a
// token obtained elsewhere (for example from the login flow); Signer mints
// short-lived HS256 tokens with github.com/golang-jwt/jwt/v5 for service
// accounts and local development, caching each token until shortly before
// it expires.
package auth
