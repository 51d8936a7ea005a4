package jwt

import (
	"errors"
	"strconv"
	"time"

	libJWT "github.com/golang-jwt/jwt/v5"
)

const minSecretLen = 64

// DefaultTTL applies when Config.TTLMinutes is not positive.
const DefaultTTL = 15 * time.Minute

// Symmetric signs with a shared HS512 secret.
type Symmetric struct {
	secret    []byte
	issuer    string
	audiences []string
	ttl       time.Duration
	clock     clocker
	uuid      generator
}

func NewHS512(cfg Config) (*Symmetric, error) {
	if len(cfg.Secret) < minSecretLen {
		return nil, ErrSigningKeyTooShort
	}
	if cfg.TTLMinutes <= 0 {
		cfg.TTLMinutes = DefaultTTL
	}

	return &Symmetric{
		secret:    cfg.Secret,
		issuer:    cfg.Issuer,
		audiences: cfg.Audiences,
		ttl:       cfg.TTLMinutes,
		clock:     cfg.Clock,
		uuid:      cfg.UUID,
	}, nil
}

func (s *Symmetric) Generate(sub Subject) (string, error) {
	now := s.clock.Now()

	amr := []string{MethodOTP}
	if sub.Channel != "" {
		amr = append(amr, sub.Channel)
	}

	clm := Claims{
		RegisteredClaims: libJWT.RegisteredClaims{
			ID:        s.uuid.Generate(),
			Subject:   strconv.FormatInt(sub.UserID, 10),
			Issuer:    s.issuer,
			Audience:  s.audiences,
			IssuedAt:  libJWT.NewNumericDate(now),
			NotBefore: libJWT.NewNumericDate(now),
			ExpiresAt: libJWT.NewNumericDate(now.Add(s.ttl)),
		},
		UserID:      sub.UserID,
		UserEmail:   sub.Email,
		UserPhone:   sub.Phone,
		AuthMethods: amr,
	}

	return libJWT.NewWithClaims(libJWT.SigningMethodHS512, clm).SignedString(s.secret)
}

func (s *Symmetric) Verify(token string) (Claims, error) {
	var clm Claims

	parsed, err := libJWT.ParseWithClaims(token, &clm,
		func(*libJWT.Token) (any, error) { return s.secret, nil },
		libJWT.WithValidMethods([]string{libJWT.SigningMethodHS512.Alg()}),
		libJWT.WithIssuer(s.issuer),
		libJWT.WithAudience(s.audiences...),
		libJWT.WithIssuedAt(),
		libJWT.WithExpirationRequired(),
		libJWT.WithTimeFunc(s.clock.Now),
	)
	switch {
	case errors.Is(err, libJWT.ErrTokenExpired):
		return Claims{}, ErrTokenExpired
	case err != nil:
		return Claims{}, errors.Join(ErrInvalidToken, err)
	case !parsed.Valid:
		return Claims{}, ErrInvalidToken
	}

	return clm, nil
}
