package services

import (
	"context"
	"errors"
	"sync"

	"fundboss/backend/models"
)

type storeCall struct {
	Op     string
	Sheet  models.Sheet
	RowID  models.RowID
	Fields map[string]any
}

// fakeStore numbers rows per sheet like a spreadsheet: ids start at 2
// under the header row and deleting a row moves the rows below it up.
type fakeStore struct {
	mu    sync.Mutex
	calls []storeCall
	rows  map[models.Sheet][]map[string]any

	createErr error
	updateErr error
	deleteErr error

	// block makes every call wait for ctx to be done.
	block bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: map[models.Sheet][]map[string]any{}}
}

func (f *fakeStore) record(c storeCall) {
	f.calls = append(f.calls, c)
}

func (f *fakeStore) wait(ctx context.Context) error {
	if !f.block {
		return nil
	}
	<-ctx.Done()
	return ctx.Err()
}

func (f *fakeStore) CreateRow(ctx context.Context, sheet models.Sheet, fields map[string]any) (models.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(storeCall{Op: "create", Sheet: sheet, Fields: fields})
	if err := f.wait(ctx); err != nil {
		return models.Row{}, err
	}
	if f.createErr != nil {
		return models.Row{}, f.createErr
	}
	f.rows[sheet] = append(f.rows[sheet], copyFields(fields))
	id := models.RowID(len(f.rows[sheet]) + 1)
	return models.Row{ID: id, Fields: withRowID(fields, id)}, nil
}

func (f *fakeStore) UpdateRow(ctx context.Context, sheet models.Sheet, rowID models.RowID, fields map[string]any) (models.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(storeCall{Op: "update", Sheet: sheet, RowID: rowID, Fields: fields})
	if err := f.wait(ctx); err != nil {
		return models.Row{}, err
	}
	if f.updateErr != nil {
		return models.Row{}, f.updateErr
	}
	row := f.row(sheet, rowID)
	if row == nil {
		return models.Row{}, errors.New("row not found")
	}
	for k, v := range fields {
		row[k] = v
	}
	return models.Row{ID: rowID, Fields: withRowID(row, rowID)}, nil
}

func (f *fakeStore) DeleteRow(ctx context.Context, sheet models.Sheet, rowID models.RowID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(storeCall{Op: "delete", Sheet: sheet, RowID: rowID})
	if err := f.wait(ctx); err != nil {
		return err
	}
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if f.row(sheet, rowID) == nil {
		return errors.New("row not found")
	}
	i := int(rowID) - 2
	f.rows[sheet] = append(f.rows[sheet][:i], f.rows[sheet][i+1:]...)
	return nil
}

func (f *fakeStore) GetRow(_ context.Context, sheet models.Sheet, rowID models.RowID) (models.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row := f.row(sheet, rowID)
	if row == nil {
		return models.Row{}, errors.New("row not found")
	}
	return models.Row{ID: rowID, Fields: withRowID(row, rowID)}, nil
}

func (f *fakeStore) row(sheet models.Sheet, rowID models.RowID) map[string]any {
	i := int(rowID) - 2
	if i < 0 || i >= len(f.rows[sheet]) {
		return nil
	}
	return f.rows[sheet][i]
}

func (f *fakeStore) ops() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.Op
	}
	return out
}

func (f *fakeStore) seed(sheet models.Sheet, fields map[string]any) models.RowID {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[sheet] = append(f.rows[sheet], copyFields(fields))
	return models.RowID(len(f.rows[sheet]) + 1)
}

func copyFields(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func withRowID(in map[string]any, id models.RowID) map[string]any {
	out := copyFields(in)
	out["id"] = float64(id)
	return out
}

// readOnlyStore hides GetRow so the janitor cannot check ownership.
type readOnlyStore struct {
	LeadStore
}
