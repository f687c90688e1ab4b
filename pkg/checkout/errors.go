package checkout

import "errors"

// ErrInvalidRequest is returned when a checkout request fails validation.
var ErrInvalidRequest = errors.New("checkout: invalid request")
