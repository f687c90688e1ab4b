package identity

import "time"

// Config configures the JWT resolver.
type Config struct {
	SigningKey string        `env:"IDENTITY_JWT_SECRET"`
	Issuer     string        `env:"IDENTITY_JWT_ISSUER"`
	Audience   string        `env:"IDENTITY_JWT_AUDIENCE"`
	CookieName string        `env:"IDENTITY_COOKIE" envDefault:"__session"`
	Leeway     time.Duration `env:"IDENTITY_JWT_LEEWAY" envDefault:"30s"`
}
