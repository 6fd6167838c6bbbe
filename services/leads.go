package services

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"fundboss/backend/apperrors"
	"fundboss/backend/models"
)

// LeadService drives a lead through create, update and submit. It holds no
// lead state; callers carry the LeadRef between requests.
type LeadService struct {
	Store LeadStore

	// Pending records old rows whose delete failed during a sheet
	// migration. Nil disables compensation and the row is left behind.
	Pending PendingDeleteStore

	// Submissions receives every submit payload. Nil disables the log.
	Submissions SubmissionLog

	// Timeout bounds each outbound store call. Zero means no extra bound.
	Timeout time.Duration

	Logger *slog.Logger
	Now    func() time.Time
}

type LeadResult struct {
	Sheet    models.Sheet   `json:"sheet"`
	RowID    models.RowID   `json:"rowId"`
	Data     map[string]any `json:"data"`
	Migrated bool           `json:"-"`
}

// Create starts a lead in the default sheet with only the mobile number.
func (s *LeadService) Create(ctx context.Context, data models.LeadData) (LeadResult, error) {
	mobile := data.Mobile.String()
	if mobile == "" {
		return LeadResult{}, apperrors.Validation("mobile is required")
	}
	fields := map[string]any{
		"mobile": mobile,
		"status": string(models.StatusStarted),
	}

	var row models.Row
	err := s.call(ctx, "create lead", func(ctx context.Context) (err error) {
		row, err = s.Store.CreateRow(ctx, models.DefaultSheet, fields)
		return err
	})
	if err != nil {
		return LeadResult{}, err
	}
	s.logger().Info("lead created", "sheet", models.DefaultSheet, "rowId", row.ID)
	return LeadResult{Sheet: models.DefaultSheet, RowID: row.ID, Data: rowData(row, fields)}, nil
}

// Update writes the accumulated form data. When the declared category no
// longer matches the sheet, the lead moves: a new row is created in the
// target sheet and then the old row is deleted. The move is not atomic. A
// failed create leaves the old row as the lead; a failed delete is recorded
// for the janitor and the new row is returned.
func (s *LeadService) Update(ctx context.Context, ref models.LeadRef, data models.LeadData) (LeadResult, error) {
	if ref.Sheet == "" || ref.RowID == 0 {
		return LeadResult{}, apperrors.Validation("rowId and sheet are required")
	}
	if !ref.Known() {
		return LeadResult{}, apperrors.Validation("Invalid rowId")
	}
	cat, err := data.Category()
	if err != nil {
		return LeadResult{}, apperrors.Validation("Invalid loan type")
	}
	fields := LeadFields(data, cat, models.StatusInProgress)
	target := cat.Sheet()

	if target == ref.Sheet {
		var row models.Row
		err := s.call(ctx, "update lead", func(ctx context.Context) (err error) {
			row, err = s.Store.UpdateRow(ctx, ref.Sheet, ref.RowID, fields)
			return err
		})
		if err != nil {
			return LeadResult{}, err
		}
		return LeadResult{Sheet: ref.Sheet, RowID: ref.RowID, Data: rowData(row, fields)}, nil
	}

	var created models.Row
	err = s.call(ctx, "migrate lead", func(ctx context.Context) (err error) {
		created, err = s.Store.CreateRow(ctx, target, fields)
		return err
	})
	if err != nil {
		return LeadResult{}, err
	}
	result := LeadResult{Sheet: target, RowID: created.ID, Data: rowData(created, fields), Migrated: true}

	err = s.call(ctx, "delete migrated lead", func(ctx context.Context) error {
		return s.Store.DeleteRow(ctx, ref.Sheet, ref.RowID)
	})
	if err != nil {
		s.logger().Warn("old row not deleted after migration",
			"from", ref.Sheet, "fromRowId", ref.RowID, "to", target, "toRowId", created.ID, "error", err)
		s.recordPendingDelete(ctx, ref, fields, err)
		return result, nil
	}
	shiftPending(ctx, s.Pending, ref.Sheet, ref.RowID, s.logger())
	s.logger().Info("lead migrated", "from", ref.Sheet, "fromRowId", ref.RowID, "to", target, "toRowId", created.ID)
	return result, nil
}

// Submit finalizes a lead. With a known ref the row is updated in place to
// Submitted; a declared loan type must match the ref's sheet. Without one the lead is created directly in its category's
// sheet, for clients that never call create-lead. raw is the request body
// as received and goes to the submission log.
func (s *LeadService) Submit(ctx context.Context, ref models.LeadRef, data models.LeadData, raw map[string]any) (LeadResult, error) {
	if ref.RowID != 0 && !ref.Known() {
		return LeadResult{}, apperrors.Validation("Invalid rowId")
	}
	s.logSubmission(ctx, raw)

	if ref.Known() {
		cat := ref.Sheet.Category()
		if declared, err := data.Category(); err == nil && declared != cat {
			return LeadResult{}, apperrors.Validation("Invalid loan type: lead is in the %s sheet, move it with update-lead first", ref.Sheet)
		} else if err != nil && (data.LoanType.String() != "" || data.LoanCategory.String() != "") {
			return LeadResult{}, apperrors.Validation("Invalid loan type")
		}
		fields := LeadFields(data, cat, models.StatusSubmitted)
		var row models.Row
		err := s.call(ctx, "submit lead", func(ctx context.Context) (err error) {
			row, err = s.Store.UpdateRow(ctx, ref.Sheet, ref.RowID, fields)
			return err
		})
		if err != nil {
			return LeadResult{}, err
		}
		s.logger().Info("lead submitted", "sheet", ref.Sheet, "rowId", ref.RowID)
		return LeadResult{Sheet: ref.Sheet, RowID: ref.RowID, Data: rowData(row, fields)}, nil
	}

	cat, err := data.Category()
	if err != nil {
		return LeadResult{}, apperrors.Validation("Invalid loan type")
	}
	fields := LeadFields(data, cat, models.StatusSubmitted)
	var row models.Row
	err = s.call(ctx, "submit lead", func(ctx context.Context) (err error) {
		row, err = s.Store.CreateRow(ctx, cat.Sheet(), fields)
		return err
	})
	if err != nil {
		return LeadResult{}, err
	}
	s.logger().Info("lead submitted without prior create", "sheet", cat.Sheet(), "rowId", row.ID)
	return LeadResult{Sheet: cat.Sheet(), RowID: row.ID, Data: rowData(row, fields)}, nil
}

// LeadFields maps form data to the row written for cat. Empty values are
// left out so partial steps do not blank earlier answers.
func LeadFields(data models.LeadData, cat models.LoanCategory, status models.LeadStatus) map[string]any {
	fields := map[string]any{
		"loanType": cat.String(),
		"status":   string(status),
	}
	set := func(key string, v models.FlexString) {
		if s := v.String(); s != "" {
			fields[key] = s
		}
	}
	set("mobile", data.Mobile)
	set("pinCode", data.PinCode)
	set("panNumber", data.PanNumber)
	set("fullName", data.FullName)
	set("loanAmount", data.LoanAmount)

	switch cat {
	case models.LoanSalaried:
		set("salary", data.Salary)
		set("designation", data.Designation)
		set("hasPF", data.HasPF)
	case models.LoanBusiness:
		set("hasGST", data.HasGST)
		set("businessRegistration", data.BusinessRegistration)
	}
	return fields
}

func (s *LeadService) call(ctx context.Context, op string, fn func(context.Context) error) error {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}
	return apperrors.Upstream(op, fn(ctx))
}

func (s *LeadService) recordPendingDelete(ctx context.Context, ref models.LeadRef, fields map[string]any, cause error) {
	if s.Pending == nil {
		return
	}
	mobile, _ := fields["mobile"].(string)
	p := models.PendingDelete{
		ID:        uuid.NewString(),
		Sheet:     ref.Sheet,
		RowID:     ref.RowID,
		Mobile:    mobile,
		LastError: cause.Error(),
		CreatedAt: s.now(),
	}
	// the request context may already be done; the marker must still land
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.Pending.Add(ctx, p); err != nil {
		s.logger().Error("pending delete not recorded, old row is orphaned",
			"sheet", ref.Sheet, "rowId", ref.RowID, "error", err)
	}
}

func (s *LeadService) logSubmission(ctx context.Context, raw map[string]any) {
	if s.Submissions == nil {
		return
	}
	if err := s.Submissions.Append(ctx, models.Submission{Payload: raw, Timestamp: s.now()}); err != nil {
		s.logger().Warn("submission not logged", "error", err)
	}
}

func (s *LeadService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *LeadService) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// rowData prefers what the store echoed back and falls back to what was sent.
func rowData(row models.Row, sent map[string]any) map[string]any {
	if len(row.Fields) > 0 {
		return row.Fields
	}
	out := make(map[string]any, len(sent)+1)
	for k, v := range sent {
		out[k] = v
	}
	if row.ID > 0 {
		out["id"] = int(row.ID)
	}
	return out
}

// shiftPending renumbers pending deletes below a deleted row. Both stores
// number rows by position, so every row under the deleted one moves up.
func shiftPending(ctx context.Context, pending PendingDeleteStore, sheet models.Sheet, deleted models.RowID, logger *slog.Logger) {
	if pending == nil {
		return
	}
	list, err := pending.List(ctx)
	if err != nil {
		logger.Warn("pending deletes not renumbered", "error", err)
		return
	}
	for _, p := range list {
		if p.Sheet != sheet || p.RowID <= deleted {
			continue
		}
		p.RowID--
		if err := pending.Update(ctx, p); err != nil {
			logger.Warn("pending delete not renumbered", "id", p.ID, "error", err)
		}
	}
}

func fieldString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case bool:
		return strconv.FormatBool(t)
	}
	return ""
}
