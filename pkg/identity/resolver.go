package identity

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Resolver binds a request to a user id.
// Implementations return ErrUnauthenticated when the request carries no
// credentials and ErrInvalidToken when it carries bad ones.
type Resolver interface {
	Resolve(r *http.Request) (string, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(r *http.Request) (string, error)

func (f ResolverFunc) Resolve(r *http.Request) (string, error) { return f(r) }

// JWTResolver verifies HS256 session tokens and uses the subject claim as
// the user id.
type JWTResolver struct {
	key       []byte
	extractor TokenExtractorFunc
	parser    *jwt.Parser
}

// JWTOption configures a JWTResolver.
type JWTOption func(*jwtSettings)

type jwtSettings struct {
	extractor TokenExtractorFunc
	now       func() time.Time
}

// WithExtractor replaces the default Bearer-then-cookie extraction.
func WithExtractor(ex TokenExtractorFunc) JWTOption {
	return func(s *jwtSettings) {
		if ex != nil {
			s.extractor = ex
		}
	}
}

// WithClock overrides the time used for expiry checks.
func WithClock(now func() time.Time) JWTOption {
	return func(s *jwtSettings) {
		if now != nil {
			s.now = now
		}
	}
}

// NewJWTResolver builds a resolver from cfg.
func NewJWTResolver(cfg Config, opts ...JWTOption) (*JWTResolver, error) {
	if cfg.SigningKey == "" {
		return nil, ErrMissingSigningKey
	}

	cookie := cfg.CookieName
	if cookie == "" {
		cookie = "__session"
	}
	s := &jwtSettings{
		extractor: FirstOf(BearerTokenExtractor, CookieTokenExtractor(cookie)),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(cfg.Leeway),
		jwt.WithTimeFunc(s.now),
	}
	if cfg.Issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		parserOpts = append(parserOpts, jwt.WithAudience(cfg.Audience))
	}

	return &JWTResolver{
		key:       []byte(cfg.SigningKey),
		extractor: s.extractor,
		parser:    jwt.NewParser(parserOpts...),
	}, nil
}

// Resolve returns the subject of a valid token.
func (j *JWTResolver) Resolve(r *http.Request) (string, error) {
	raw, err := j.extractor(r)
	if err != nil {
		return "", err
	}

	claims := &jwt.RegisteredClaims{}
	token, err := j.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return j.key, nil
	})
	if err != nil {
		return "", errors.Join(ErrInvalidToken, err)
	}
	if !token.Valid {
		return "", ErrInvalidToken
	}

	sub := strings.TrimSpace(claims.Subject)
	if sub == "" {
		return "", errors.Join(ErrInvalidToken, errors.New("token has no subject"))
	}
	return sub, nil
}
