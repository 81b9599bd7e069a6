package auth

import "errors"

var (
	ErrEmptyToken  = errors.New("auth: empty bearer token")
	ErrEmptySecret = errors.New("auth: empty signing secret")
	ErrSignToken   = errors.New("auth: failed to sign token")
)
