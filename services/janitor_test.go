package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"fundboss/backend/models"
)

func addPending(t *testing.T, pending *MemoryPendingDeletes, id string, sheet models.Sheet, rowID models.RowID, mobile string) {
	t.Helper()
	err := pending.Add(context.Background(), models.PendingDelete{
		ID: id, Sheet: sheet, RowID: rowID, Mobile: mobile, CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestJanitorClearsPendingDeleteAfterMigration(t *testing.T) {
	store := newFakeStore()
	store.deleteErr = errors.New("unavailable")
	svc, pending, _ := newLeadService(store)
	rowID := store.seed(models.SheetSalaried, map[string]any{"mobile": "9876543210"})

	data := salariedData()
	data.LoanType = "Business"
	if _, err := svc.Update(context.Background(), models.LeadRef{Sheet: models.SheetSalaried, RowID: rowID}, data); err != nil {
		t.Fatal(err)
	}

	store.deleteErr = nil
	j := &MigrationJanitor{Store: store, Pending: pending, MaxAttempts: 3}
	n, err := j.Sweep(context.Background())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if n != 1 {
		t.Errorf("expected one delete, got %d", n)
	}
	if list, _ := pending.List(context.Background()); len(list) != 0 {
		t.Errorf("expected no pending deletes, got %v", list)
	}
	if rows := store.rows[models.SheetSalaried]; len(rows) != 0 {
		t.Errorf("expected old row gone, got %v", rows)
	}
}

func TestJanitorCountsFailuresAndGivesUp(t *testing.T) {
	store := newFakeStore()
	store.deleteErr = errors.New("unavailable")
	pending := NewMemoryPendingDeletes()
	rowID := store.seed(models.SheetSalaried, map[string]any{"mobile": "1"})
	addPending(t, pending, "p1", models.SheetSalaried, rowID, "1")

	j := &MigrationJanitor{Store: store, Pending: pending, MaxAttempts: 2}
	ctx := context.Background()

	if _, err := j.Sweep(ctx); err != nil {
		t.Fatal(err)
	}
	list, _ := pending.List(ctx)
	if len(list) != 1 || list[0].Attempts != 1 || list[0].LastError != "unavailable" {
		t.Fatalf("expected one failed attempt, got %+v", list)
	}

	if _, err := j.Sweep(ctx); err != nil {
		t.Fatal(err)
	}
	if list, _ := pending.List(ctx); len(list) != 0 {
		t.Errorf("expected pending delete dropped after max attempts, got %+v", list)
	}
}

func TestJanitorSkipsRowThatChangedOwner(t *testing.T) {
	store := newFakeStore()
	pending := NewMemoryPendingDeletes()
	rowID := store.seed(models.SheetSalaried, map[string]any{"mobile": "2222222222"})
	addPending(t, pending, "p1", models.SheetSalaried, rowID, "9876543210")

	j := &MigrationJanitor{Store: store, Pending: pending, MaxAttempts: 3}
	if _, err := j.Sweep(context.Background()); err != nil {
		t.Fatal(err)
	}
	for _, op := range store.ops() {
		if op == "delete" {
			t.Fatal("deleted a row belonging to another lead")
		}
	}
	if list, _ := pending.List(context.Background()); len(list) != 0 {
		t.Errorf("expected pending delete dropped, got %+v", list)
	}
}

func TestJanitorRenumbersRowsBelowDeletedRow(t *testing.T) {
	store := newFakeStore()
	pending := NewMemoryPendingDeletes()
	first := store.seed(models.SheetSalaried, map[string]any{"mobile": "1"})
	store.seed(models.SheetSalaried, map[string]any{"mobile": "keep"})
	third := store.seed(models.SheetSalaried, map[string]any{"mobile": "3"})
	addPending(t, pending, "a", models.SheetSalaried, first, "1")
	addPending(t, pending, "b", models.SheetSalaried, third, "3")

	j := &MigrationJanitor{Store: store, Pending: pending, MaxAttempts: 3}
	n, err := j.Sweep(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("expected both rows deleted, got %d", n)
	}
	rows := store.rows[models.SheetSalaried]
	if len(rows) != 1 || rows[0]["mobile"] != "keep" {
		t.Errorf("expected only the unrelated row to remain, got %v", rows)
	}
}

func TestJanitorWithoutRowReaderDeletesDirectly(t *testing.T) {
	store := newFakeStore()
	pending := NewMemoryPendingDeletes()
	rowID := store.seed(models.SheetBusiness, map[string]any{"mobile": "other"})
	addPending(t, pending, "p1", models.SheetBusiness, rowID, "9876543210")

	j := &MigrationJanitor{Store: readOnlyStore{store}, Pending: pending}
	n, err := j.Sweep(context.Background())
	if err != nil || n != 1 {
		t.Fatalf("expected one delete, got %d %v", n, err)
	}
}

func TestJanitorRunStopsOnCancel(t *testing.T) {
	store := newFakeStore()
	pending := NewMemoryPendingDeletes()
	rowID := store.seed(models.SheetSalaried, map[string]any{"mobile": "1"})
	addPending(t, pending, "p1", models.SheetSalaried, rowID, "1")

	ctx, cancel := context.WithCancel(context.Background())
	j := &MigrationJanitor{Store: store, Pending: pending, Interval: 5 * time.Millisecond}
	done := make(chan error, 1)
	go func() { done <- j.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for {
		list, _ := pending.List(context.Background())
		if len(list) == 0 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("janitor never swept")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected nil on cancel, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop")
	}
}
