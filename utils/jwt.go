package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CaptchaClaims binds a challenge text to its expiry. The HS256 signature
// covers both, so the token needs no server-side lookup.
type CaptchaClaims struct {
	Challenge string `json:"chl"`
	jwt.RegisteredClaims
}

func GenerateCaptchaToken(secret []byte, challenge string, issuedAt, expiresAt time.Time) (string, error) {
	claims := CaptchaClaims{
		Challenge: challenge,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(secret)
}

// ParseCaptchaToken fails closed: bad signature, other algorithms, missing
// or past expiry and malformed input are all errors.
func ParseCaptchaToken(secret []byte, token string, now func() time.Time) (*CaptchaClaims, error) {
	claims := &CaptchaClaims{}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if now != nil {
		opts = append(opts, jwt.WithTimeFunc(now))
	}
	t, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if !t.Valid || claims.Challenge == "" {
		return nil, errors.New("invalid captcha token")
	}
	return claims, nil
}
