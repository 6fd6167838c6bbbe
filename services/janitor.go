package services

import (
	"context"
	"log/slog"
	"time"

	"fundboss/backend/models"
)

// MigrationJanitor retries deletes of rows left behind by sheet migrations.
type MigrationJanitor struct {
	Store       LeadStore
	Pending     PendingDeleteStore
	Interval    time.Duration
	MaxAttempts int
	Timeout     time.Duration
	Logger      *slog.Logger
}

// Run sweeps every Interval until ctx is done.
func (j *MigrationJanitor) Run(ctx context.Context) error {
	interval := j.Interval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := j.Sweep(ctx); err != nil && ctx.Err() == nil {
				j.logger().Error("janitor sweep failed", "error", err)
			}
		}
	}
}

// Sweep makes one pass over the pending deletes and returns how many rows
// it removed.
func (j *MigrationJanitor) Sweep(ctx context.Context) (int, error) {
	list, err := j.Pending.List(ctx)
	if err != nil {
		return 0, err
	}
	deleted := 0
	for i, p := range list {
		if ctx.Err() != nil {
			return deleted, ctx.Err()
		}
		ok, err := j.retry(ctx, p)
		if err != nil {
			return deleted, err
		}
		if !ok {
			continue
		}
		deleted++
		// keep the rest of this pass in step with the renumbered store
		for k := i + 1; k < len(list); k++ {
			if list[k].Sheet == p.Sheet && list[k].RowID > p.RowID {
				list[k].RowID--
			}
		}
	}
	return deleted, nil
}

func (j *MigrationJanitor) retry(ctx context.Context, p models.PendingDelete) (bool, error) {
	log := j.logger().With("id", p.ID, "sheet", p.Sheet, "rowId", p.RowID)

	owned, err := j.stillOwned(ctx, p)
	if err == nil && !owned {
		log.Warn("row no longer holds the migrated lead, dropping pending delete")
		return false, j.Pending.Remove(ctx, p.ID)
	}
	if err == nil {
		err = j.withTimeout(ctx, func(ctx context.Context) error {
			return j.Store.DeleteRow(ctx, p.Sheet, p.RowID)
		})
	}
	if err == nil {
		log.Info("migrated lead's old row deleted", "attempts", p.Attempts+1)
		if err := j.Pending.Remove(ctx, p.ID); err != nil {
			return true, err
		}
		shiftPending(ctx, j.Pending, p.Sheet, p.RowID, j.logger())
		return true, nil
	}

	p.Attempts++
	p.LastError = err.Error()
	if j.MaxAttempts > 0 && p.Attempts >= j.MaxAttempts {
		log.Error("giving up on old row delete, lead is duplicated", "attempts", p.Attempts, "error", err)
		return false, j.Pending.Remove(ctx, p.ID)
	}
	log.Warn("old row delete failed", "attempts", p.Attempts, "error", err)
	return false, j.Pending.Update(ctx, p)
}

// stillOwned checks that the row still carries the lead's mobile number.
// Stores that cannot read rows back are trusted.
func (j *MigrationJanitor) stillOwned(ctx context.Context, p models.PendingDelete) (bool, error) {
	reader, ok := j.Store.(RowReader)
	if !ok || p.Mobile == "" {
		return true, nil
	}
	var row models.Row
	err := j.withTimeout(ctx, func(ctx context.Context) (err error) {
		row, err = reader.GetRow(ctx, p.Sheet, p.RowID)
		return err
	})
	if err != nil {
		return false, err
	}
	return fieldString(row.Fields["mobile"]) == p.Mobile, nil
}

func (j *MigrationJanitor) withTimeout(ctx context.Context, fn func(context.Context) error) error {
	if j.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.Timeout)
		defer cancel()
	}
	return fn(ctx)
}

func (j *MigrationJanitor) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
