package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"fundboss/backend/apperrors"
	"fundboss/backend/models"
	"fundboss/backend/utils"
)

const challengeLength = 6

var (
	ErrCaptchaInvalid   = &apperrors.ValidationError{Message: "Expired or invalid"}
	ErrCaptchaIncorrect = &apperrors.ValidationError{Message: "Incorrect captcha"}
)

// Captcha issues challenges and checks answers. Verify returns nil on a
// correct answer, ErrCaptchaInvalid for unknown, tampered or expired
// challenges and ErrCaptchaIncorrect for a wrong answer.
type Captcha interface {
	Issue(ctx context.Context) (models.Challenge, error)
	Verify(ctx context.Context, id, answer string) error
}

// SignedCaptcha keeps no state: the challenge and its expiry travel in an
// HS256 token. A captured token can be replayed until it expires.
type SignedCaptcha struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewSignedCaptcha(secret string, ttl time.Duration) *SignedCaptcha {
	return &SignedCaptcha{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (s *SignedCaptcha) Issue(_ context.Context) (models.Challenge, error) {
	text, err := utils.RandomChallenge(challengeLength)
	if err != nil {
		return models.Challenge{}, fmt.Errorf("error generating challenge: %w", err)
	}
	now := s.now()
	expiresAt := now.Add(s.ttl)
	token, err := utils.GenerateCaptchaToken(s.secret, text, now, expiresAt)
	if err != nil {
		return models.Challenge{}, fmt.Errorf("error signing challenge: %w", err)
	}
	return models.Challenge{ID: token, Text: text, ExpiresAt: expiresAt}, nil
}

func (s *SignedCaptcha) Verify(_ context.Context, id, answer string) error {
	claims, err := utils.ParseCaptchaToken(s.secret, id, s.now)
	if err != nil {
		return ErrCaptchaInvalid
	}
	if !answerMatches(claims.Challenge, answer) {
		return ErrCaptchaIncorrect
	}
	return nil
}

// StoredCaptcha keeps challenges in a ChallengeStore under a random id. A
// challenge is consumed by its first correct answer.
type StoredCaptcha struct {
	store ChallengeStore
	ttl   time.Duration
	now   func() time.Time
}

func NewStoredCaptcha(store ChallengeStore, ttl time.Duration) *StoredCaptcha {
	return &StoredCaptcha{store: store, ttl: ttl, now: time.Now}
}

func (s *StoredCaptcha) Issue(ctx context.Context) (models.Challenge, error) {
	text, err := utils.RandomChallenge(challengeLength)
	if err != nil {
		return models.Challenge{}, fmt.Errorf("error generating challenge: %w", err)
	}
	c := models.Challenge{ID: uuid.NewString(), Text: text, ExpiresAt: s.now().Add(s.ttl)}
	if err := s.store.Put(ctx, c); err != nil {
		return models.Challenge{}, fmt.Errorf("error storing challenge: %w", err)
	}
	return c, nil
}

func (s *StoredCaptcha) Verify(ctx context.Context, id, answer string) error {
	if id == "" {
		return ErrCaptchaInvalid
	}
	c, ok, err := s.store.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("error loading challenge: %w", err)
	}
	if !ok {
		return ErrCaptchaInvalid
	}
	if s.now().After(c.ExpiresAt) {
		if _, err := s.store.Delete(ctx, id); err != nil {
			return fmt.Errorf("error deleting challenge: %w", err)
		}
		return ErrCaptchaInvalid
	}
	if !answerMatches(c.Text, answer) {
		return ErrCaptchaIncorrect
	}
	deleted, err := s.store.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("error deleting challenge: %w", err)
	}
	if !deleted {
		// a concurrent verify consumed it first
		return ErrCaptchaInvalid
	}
	return nil
}

func answerMatches(expected, answer string) bool {
	got := strings.ToUpper(strings.TrimSpace(answer))
	return subtle.ConstantTimeCompare([]byte(expected), []byte(got)) == 1
}

// IsCaptchaRejection reports whether err is one of the verification
// outcomes rather than a store failure.
func IsCaptchaRejection(err error) bool {
	return errors.Is(err, ErrCaptchaInvalid) || errors.Is(err, ErrCaptchaIncorrect)
}
