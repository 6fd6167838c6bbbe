package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fundboss/backend/models"
)

// SubmissionLog persists submit-loan payloads in loan_submissions.
type SubmissionLog struct {
	Pool *pgxpool.Pool
}

func (s *SubmissionLog) Append(ctx context.Context, sub models.Submission) error {
	payload, err := json.Marshal(sub.Payload)
	if err != nil {
		return fmt.Errorf("error encoding submission: %w", err)
	}
	_, err = s.Pool.Exec(ctx, `INSERT INTO loan_submissions(payload, created_at) VALUES($1::jsonb, $2)`, string(payload), sub.Timestamp)
	return err
}

func (s *SubmissionLog) List(ctx context.Context) ([]models.Submission, error) {
	rows, err := s.Pool.Query(ctx, `SELECT payload::text, created_at FROM loan_submissions ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Submission
	for rows.Next() {
		var raw string
		var sub models.Submission
		if err := rows.Scan(&raw, &sub.Timestamp); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(raw), &sub.Payload); err != nil {
			return nil, fmt.Errorf("error decoding submission: %w", err)
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

// ChallengeStore keeps stored-mode captchas in captcha_challenges so any
// instance can verify them.
type ChallengeStore struct {
	Pool *pgxpool.Pool
	Now  func() time.Time
}

func (s *ChallengeStore) Put(ctx context.Context, c models.Challenge) error {
	if _, err := s.Pool.Exec(ctx, `DELETE FROM captcha_challenges WHERE expires_at < $1`, s.now()); err != nil {
		return err
	}
	_, err := s.Pool.Exec(ctx, `INSERT INTO captcha_challenges(id, challenge, expires_at) VALUES($1,$2,$3)`, c.ID, c.Text, c.ExpiresAt)
	return err
}

func (s *ChallengeStore) Get(ctx context.Context, id string) (models.Challenge, bool, error) {
	c := models.Challenge{ID: id}
	err := s.Pool.QueryRow(ctx, `SELECT challenge, expires_at FROM captcha_challenges WHERE id=$1`, id).Scan(&c.Text, &c.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Challenge{}, false, nil
	}
	if err != nil {
		return models.Challenge{}, false, err
	}
	return c, true, nil
}

func (s *ChallengeStore) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := s.Pool.Exec(ctx, `DELETE FROM captcha_challenges WHERE id=$1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *ChallengeStore) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// PendingDeletes keeps migration compensation markers across restarts.
type PendingDeletes struct {
	Pool *pgxpool.Pool
}

func (s *PendingDeletes) Add(ctx context.Context, p models.PendingDelete) error {
	_, err := s.Pool.Exec(ctx, `INSERT INTO pending_deletes(id, sheet, row_id, mobile, attempts, last_error, created_at)
VALUES($1,$2,$3,$4,$5,$6,$7)`, p.ID, string(p.Sheet), int(p.RowID), p.Mobile, p.Attempts, p.LastError, p.CreatedAt)
	return err
}

func (s *PendingDeletes) List(ctx context.Context) ([]models.PendingDelete, error) {
	rows, err := s.Pool.Query(ctx, `SELECT id, sheet, row_id, mobile, attempts, last_error, created_at FROM pending_deletes ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.PendingDelete
	for rows.Next() {
		var p models.PendingDelete
		var sheet string
		var rowID int
		if err := rows.Scan(&p.ID, &sheet, &rowID, &p.Mobile, &p.Attempts, &p.LastError, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.Sheet = models.Sheet(sheet)
		p.RowID = models.RowID(rowID)
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *PendingDeletes) Update(ctx context.Context, p models.PendingDelete) error {
	_, err := s.Pool.Exec(ctx, `UPDATE pending_deletes SET row_id=$2, attempts=$3, last_error=$4 WHERE id=$1`,
		p.ID, int(p.RowID), p.Attempts, p.LastError)
	return err
}

func (s *PendingDeletes) Remove(ctx context.Context, id string) error {
	_, err := s.Pool.Exec(ctx, `DELETE FROM pending_deletes WHERE id=$1`, id)
	return err
}
