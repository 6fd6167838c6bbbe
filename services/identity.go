package services

import (
	"context"
	"time"

	"fundboss/backend/models"
)

// IdentityChecker resolves a PAN to the holder's name.
type IdentityChecker interface {
	Check(ctx context.Context, pan string) (models.Identity, error)
}

// MockIdentityChecker answers from a fixed table after an artificial delay.
// Lookups match the PAN exactly.
type MockIdentityChecker struct {
	Delay    time.Duration
	Names    map[string]string
	Fallback string
}

func NewMockIdentityChecker(delay time.Duration) *MockIdentityChecker {
	return &MockIdentityChecker{
		Delay:    delay,
		Names:    map[string]string{"ABCDE1234F": "MEGA SHYAM"},
		Fallback: "TEST USER",
	}
}

func (m *MockIdentityChecker) Check(ctx context.Context, pan string) (models.Identity, error) {
	if m.Delay > 0 {
		t := time.NewTimer(m.Delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return models.Identity{}, ctx.Err()
		case <-t.C:
		}
	}
	if name, ok := m.Names[pan]; ok {
		return models.Identity{FullName: name}, nil
	}
	return models.Identity{FullName: m.Fallback}, nil
}
