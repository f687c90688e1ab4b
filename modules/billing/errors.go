package billing

import "errors"

var (
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrInvalidJSON          = errors.New("invalid JSON body")
	ErrUnknownProvider      = errors.New("unknown billing provider")
	ErrMissingForwardedURI  = errors.New("missing or invalid forwarded uri")
)
