package models

import (
	"encoding/json"
	"time"
)

// Submission is a raw submit-loan payload with its receipt time.
type Submission struct {
	Payload   map[string]any
	Timestamp time.Time
}

// MarshalJSON flattens the payload and adds a timestamp field.
func (s Submission) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(s.Payload)+1)
	for k, v := range s.Payload {
		out[k] = v
	}
	out["timestamp"] = s.Timestamp.UTC().Format(time.RFC3339Nano)
	return json.Marshal(out)
}

// PendingDelete marks a superseded row whose delete failed during a sheet
// migration. The janitor retries it. Mobile identifies the lead, since row
// ids shift when rows above are deleted.
type PendingDelete struct {
	ID        string    `json:"id"`
	Sheet     Sheet     `json:"sheet"`
	RowID     RowID     `json:"rowId"`
	Mobile    string    `json:"mobile,omitempty"`
	Attempts  int       `json:"attempts"`
	LastError string    `json:"lastError,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
