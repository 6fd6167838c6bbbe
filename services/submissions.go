package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/xuri/excelize/v2"

	"fundboss/backend/models"
)

// MemorySubmissionLog is an append-only in-process list. It is lost on
// restart.
type MemorySubmissionLog struct {
	mu          sync.RWMutex
	submissions []models.Submission
}

func NewMemorySubmissionLog() *MemorySubmissionLog {
	return &MemorySubmissionLog{}
}

func (m *MemorySubmissionLog) Append(_ context.Context, s models.Submission) error {
	m.mu.Lock()
	m.submissions = append(m.submissions, s)
	m.mu.Unlock()
	return nil
}

func (m *MemorySubmissionLog) List(_ context.Context) ([]models.Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Submission, len(m.submissions))
	copy(out, m.submissions)
	return out, nil
}

const exportSheet = "submissions"

// WriteSubmissionsXLSX writes one row per submission. The header is the
// sorted union of payload keys followed by timestamp.
func WriteSubmissionsXLSX(w io.Writer, subs []models.Submission) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return err
	}

	keySet := map[string]struct{}{}
	for _, s := range subs {
		for k := range s.Payload {
			if k != "timestamp" {
				keySet[k] = struct{}{}
			}
		}
	}
	keys := make([]string, 0, len(keySet))
	for k := range keySet {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	header := make([]interface{}, 0, len(keys)+1)
	for _, k := range keys {
		header = append(header, k)
	}
	header = append(header, "timestamp")
	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return err
	}

	for i, s := range subs {
		row := make([]interface{}, 0, len(header))
		for _, k := range keys {
			row = append(row, cellValue(s.Payload[k]))
		}
		row = append(row, s.Timestamp.UTC().Format(time.RFC3339))
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return err
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("error writing workbook: %w", err)
	}
	return nil
}

func cellValue(v any) any {
	switch t := v.(type) {
	case nil:
		return ""
	case string, float64, bool:
		return t
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}
