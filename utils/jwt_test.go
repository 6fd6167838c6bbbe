package utils

import (
	"regexp"
	"strings"
	"testing"
	"time"
)

var secret = []byte("test-secret")

func TestCaptchaTokenRoundTrip(t *testing.T) {
	now := time.Now()
	tok, err := GenerateCaptchaToken(secret, "AB12CD", now, now.Add(5*time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	claims, err := ParseCaptchaToken(secret, tok, nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Challenge != "AB12CD" {
		t.Errorf("expected AB12CD, got %s", claims.Challenge)
	}
}

func TestCaptchaTokenExpired(t *testing.T) {
	now := time.Now()
	tok, err := GenerateCaptchaToken(secret, "AB12CD", now.Add(-10*time.Minute), now.Add(-5*time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ParseCaptchaToken(secret, tok, nil); err == nil {
		t.Error("expected expired token to fail")
	}
}

func TestCaptchaTokenUsesInjectedClock(t *testing.T) {
	now := time.Now()
	tok, err := GenerateCaptchaToken(secret, "AB12CD", now, now.Add(time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	later := func() time.Time { return now.Add(2 * time.Minute) }
	if _, err := ParseCaptchaToken(secret, tok, later); err == nil {
		t.Error("expected token to be expired under the injected clock")
	}
}

func TestCaptchaTokenWrongSecret(t *testing.T) {
	now := time.Now()
	tok, _ := GenerateCaptchaToken(secret, "AB12CD", now, now.Add(time.Minute))
	if _, err := ParseCaptchaToken([]byte("other"), tok, nil); err == nil {
		t.Error("expected signature mismatch")
	}
}

func TestCaptchaTokenMalformed(t *testing.T) {
	for _, tok := range []string{"", "abc", "a.b.c", strings.Repeat("x", 40)} {
		if _, err := ParseCaptchaToken(secret, tok, nil); err == nil {
			t.Errorf("expected %q to fail", tok)
		}
	}
}

func TestRandomChallenge(t *testing.T) {
	re := regexp.MustCompile(`^[A-Z0-9]{6}$`)
	for i := 0; i < 50; i++ {
		c, err := RandomChallenge(6)
		if err != nil {
			t.Fatal(err)
		}
		if !re.MatchString(c) {
			t.Fatalf("unexpected challenge %q", c)
		}
	}
}
