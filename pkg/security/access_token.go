package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const tokenPurpose = "access-token"

var ErrTokenInvalid = errors.New("access token invalid")

// AccessTokens mints and parses stateless HS256 tokens. There is no
// revocation, a token is good until it expires.
type AccessTokens struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

func NewAccessTokens(secret string, ttl time.Duration) (*AccessTokens, error) {
	if ttl <= 0 {
		return nil, errors.New("token ttl must be bigger than 0")
	}

	key, err := DeriveKey(secret, tokenPurpose)
	if err != nil {
		return nil, err
	}

	return &AccessTokens{key: key, ttl: ttl, now: time.Now}, nil
}

// Mint returns a signed token for userID and the moment it expires.
func (a *AccessTokens) Mint(userID string) (string, time.Time, error) {
	now := a.now()
	exp := now.Add(a.ttl)

	jti, err := gonanoid.New()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to generate token ID, %w", err)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
		ID:        jti,
	})

	signed, err := token.SignedString(a.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token, %w", err)
	}

	return signed, exp, nil
}

// Parse validates tokenStr and returns the user ID it was minted for.
func (a *AccessTokens) Parse(tokenStr string) (string, error) {
	var claims jwt.RegisteredClaims

	_, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		return a.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	if claims.Subject == "" {
		return "", fmt.Errorf("%w: no subject", ErrTokenInvalid)
	}

	return claims.Subject, nil
}
