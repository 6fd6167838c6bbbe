package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"fundboss/backend/models"
)

// LeadStore is the remote tabular store holding lead rows.
type LeadStore interface {
	CreateRow(ctx context.Context, sheet models.Sheet, fields map[string]any) (models.Row, error)
	UpdateRow(ctx context.Context, sheet models.Sheet, rowID models.RowID, fields map[string]any) (models.Row, error)
	DeleteRow(ctx context.Context, sheet models.Sheet, rowID models.RowID) error
}

// RowReader is implemented by lead stores that can read a row back.
type RowReader interface {
	GetRow(ctx context.Context, sheet models.Sheet, rowID models.RowID) (models.Row, error)
}

// ChallengeStore holds issued captchas for the stored captcha variant.
type ChallengeStore interface {
	Put(ctx context.Context, c models.Challenge) error
	Get(ctx context.Context, id string) (models.Challenge, bool, error)
	// Delete reports whether the entry existed, so only one verifier can
	// consume a challenge.
	Delete(ctx context.Context, id string) (bool, error)
}

type SubmissionLog interface {
	Append(ctx context.Context, s models.Submission) error
	List(ctx context.Context) ([]models.Submission, error)
}

type PendingDeleteStore interface {
	Add(ctx context.Context, p models.PendingDelete) error
	List(ctx context.Context) ([]models.PendingDelete, error)
	Update(ctx context.Context, p models.PendingDelete) error
	Remove(ctx context.Context, id string) error
}

// MemoryChallengeStore keeps challenges in process memory. Challenges are
// lost on restart and not shared between instances.
type MemoryChallengeStore struct {
	mu         sync.Mutex
	challenges map[string]models.Challenge
	now        func() time.Time
}

func NewMemoryChallengeStore() *MemoryChallengeStore {
	return &MemoryChallengeStore{challenges: map[string]models.Challenge{}, now: time.Now}
}

func (m *MemoryChallengeStore) Put(_ context.Context, c models.Challenge) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for id, old := range m.challenges {
		if now.After(old.ExpiresAt) {
			delete(m.challenges, id)
		}
	}
	m.challenges[c.ID] = c
	return nil
}

func (m *MemoryChallengeStore) Get(_ context.Context, id string) (models.Challenge, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.challenges[id]
	return c, ok, nil
}

func (m *MemoryChallengeStore) Delete(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.challenges[id]
	delete(m.challenges, id)
	return ok, nil
}

type MemoryPendingDeletes struct {
	mu      sync.Mutex
	pending map[string]models.PendingDelete
}

func NewMemoryPendingDeletes() *MemoryPendingDeletes {
	return &MemoryPendingDeletes{pending: map[string]models.PendingDelete{}}
}

func (m *MemoryPendingDeletes) Add(_ context.Context, p models.PendingDelete) error {
	m.mu.Lock()
	m.pending[p.ID] = p
	m.mu.Unlock()
	return nil
}

func (m *MemoryPendingDeletes) List(_ context.Context) ([]models.PendingDelete, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.PendingDelete, 0, len(m.pending))
	for _, p := range m.pending {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryPendingDeletes) Update(ctx context.Context, p models.PendingDelete) error {
	return m.Add(ctx, p)
}

func (m *MemoryPendingDeletes) Remove(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.pending, id)
	m.mu.Unlock()
	return nil
}
