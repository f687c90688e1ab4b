package identity

import "errors"

var (
	ErrUnauthenticated   = errors.New("identity: no credentials")
	ErrInvalidToken      = errors.New("identity: invalid token")
	ErrMissingSigningKey = errors.New("identity: missing signing key")
)
