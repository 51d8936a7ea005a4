package jwt

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MethodOTP is the authentication method reference for code-based logins.
const MethodOTP = "otp"

var (
	ErrSigningKeyTooShort = errors.New("jwt: HS512 secret must be at least 64 bytes")
	ErrTokenExpired       = errors.New("jwt: token expired")
	ErrInvalidToken       = errors.New("jwt: invalid token")
)

// JWT issues and verifies access tokens.
type JWT interface {
	Generate(sub Subject) (string, error)
	Verify(token string) (Claims, error)
}

// Subject is who a token is issued to and how they proved it.
type Subject struct {
	UserID int64
	Email  string
	Phone  string
	// Channel is where the login code was delivered ("email", "sms").
	Channel string
}

type clocker interface {
	Now() time.Time
}

type generator interface {
	Generate() string
}

type Config struct {
	Secret     []byte
	Issuer     string
	Audiences  []string
	TTLMinutes time.Duration
	Clock      clocker
	// UUID generates the jti claim.
	UUID generator
}

// Claims are the registered claims plus the user the token speaks for.
type Claims struct {
	jwt.RegisteredClaims

	UserID    int64  `json:"uid,string"`
	UserEmail string `json:"email,omitempty"`
	UserPhone string `json:"phone,omitempty"`
	// AuthMethods follows RFC 8176 "amr", e.g. ["otp", "sms"].
	AuthMethods []string `json:"amr,omitempty"`
}

type authKey struct{}

// GetAuth returns the verified claims of the request, or nil for anonymous callers.
func GetAuth(ctx context.Context) *Claims {
	clm, ok := ctx.Value(authKey{}).(Claims)
	if !ok {
		return nil
	}
	return &clm
}

func SetAuth(ctx context.Context, clm Claims) context.Context {
	return context.WithValue(ctx, authKey{}, clm)
}
