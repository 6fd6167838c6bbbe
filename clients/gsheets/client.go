// Package gsheets stores leads directly in a Google Spreadsheet, one tab per
// sheet, instead of going through the Sheety proxy. Row ids are sheet row
// numbers, so deleting a row renumbers the rows below it, as with Sheety.
package gsheets

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"sync"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"fundboss/backend/models"
)

// Columns is the fixed column order of every lead tab. Row 1 holds these
// headers.
var Columns = []string{
	"mobile", "pinCode", "panNumber", "fullName", "loanType", "loanAmount",
	"salary", "designation", "hasPF", "hasGST", "businessRegistration", "status",
}

type Options struct {
	SpreadsheetID   string
	CredentialsFile string
	APIKey          string
	Tables          map[models.Sheet]string

	// Endpoint and HTTPClient override the Google endpoint, for tests.
	Endpoint   string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

type Client struct {
	svc           *sheets.Service
	spreadsheetID string
	tables        map[models.Sheet]string
	logger        *slog.Logger

	mu       sync.Mutex
	sheetIDs map[string]int64
}

func NewClient(ctx context.Context, opts Options) (*Client, error) {
	var clientOpts []option.ClientOption
	switch {
	case opts.HTTPClient != nil:
		clientOpts = append(clientOpts, option.WithHTTPClient(opts.HTTPClient))
	case opts.CredentialsFile != "":
		clientOpts = append(clientOpts, option.WithCredentialsFile(opts.CredentialsFile))
	case opts.APIKey != "":
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	if opts.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(opts.Endpoint))
	}

	svc, err := sheets.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("error creating sheets service: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		svc:           svc,
		spreadsheetID: opts.SpreadsheetID,
		tables:        opts.Tables,
		logger:        logger,
		sheetIDs:      map[string]int64{},
	}, nil
}

func (c *Client) title(sheet models.Sheet) string {
	if name, ok := c.tables[sheet]; ok && name != "" {
		return name
	}
	return string(sheet)
}

func (c *Client) CreateRow(ctx context.Context, sheet models.Sheet, fields map[string]any) (models.Row, error) {
	title := c.title(sheet)
	vr := &sheets.ValueRange{Values: [][]interface{}{rowValues(fields)}}
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, quote(title)+"!A1", vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return models.Row{}, fmt.Errorf("error appending row to %s: %w", title, err)
	}
	if resp.Updates == nil {
		return models.Row{}, fmt.Errorf("error appending row to %s: no updated range in response", title)
	}
	rowID, err := ParseRowNumber(resp.Updates.UpdatedRange)
	if err != nil {
		return models.Row{}, err
	}
	c.logger.Debug("appended sheet row", "sheet", title, "rowId", rowID)
	return models.Row{ID: rowID, Fields: withID(fields, rowID)}, nil
}

func (c *Client) UpdateRow(ctx context.Context, sheet models.Sheet, rowID models.RowID, fields map[string]any) (models.Row, error) {
	title := c.title(sheet)
	vr := &sheets.ValueRange{Values: [][]interface{}{rowValues(fields)}}
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, fmt.Sprintf("%s!A%d", quote(title), rowID), vr).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return models.Row{}, fmt.Errorf("error updating row %d in %s: %w", rowID, title, err)
	}
	c.logger.Debug("updated sheet row", "sheet", title, "rowId", rowID)
	return models.Row{ID: rowID, Fields: withID(fields, rowID)}, nil
}

// GetRow reads a single row back into a field map keyed by Columns.
func (c *Client) GetRow(ctx context.Context, sheet models.Sheet, rowID models.RowID) (models.Row, error) {
	title := c.title(sheet)
	vr, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, fmt.Sprintf("%s!A%d:%s%d", quote(title), rowID, lastColumn(), rowID)).
		Context(ctx).
		Do()
	if err != nil {
		return models.Row{}, fmt.Errorf("error reading row %d in %s: %w", rowID, title, err)
	}
	fields := map[string]any{}
	if len(vr.Values) > 0 {
		for i, v := range vr.Values[0] {
			if i < len(Columns) {
				fields[Columns[i]] = v
			}
		}
	}
	return models.Row{ID: rowID, Fields: withID(fields, rowID)}, nil
}

func (c *Client) DeleteRow(ctx context.Context, sheet models.Sheet, rowID models.RowID) error {
	title := c.title(sheet)
	sheetID, err := c.sheetID(ctx, title)
	if err != nil {
		return err
	}
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			DeleteDimension: &sheets.DeleteDimensionRequest{
				Range: &sheets.DimensionRange{
					SheetId:         sheetID,
					Dimension:       "ROWS",
					StartIndex:      int64(rowID) - 1,
					EndIndex:        int64(rowID),
					ForceSendFields: []string{"SheetId", "StartIndex"},
				},
			},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("error deleting row %d in %s: %w", rowID, title, err)
	}
	c.logger.Debug("deleted sheet row", "sheet", title, "rowId", rowID)
	return nil
}

func (c *Client) sheetID(ctx context.Context, title string) (int64, error) {
	c.mu.Lock()
	id, ok := c.sheetIDs[title]
	c.mu.Unlock()
	if ok {
		return id, nil
	}

	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("error reading spreadsheet: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range ss.Sheets {
		if s.Properties != nil {
			c.sheetIDs[s.Properties.Title] = s.Properties.SheetId
		}
	}
	id, ok = c.sheetIDs[title]
	if !ok {
		return 0, fmt.Errorf("sheet %q not found in spreadsheet", title)
	}
	return id, nil
}

// rowValues lays fields out in column order. Missing fields are nil, which
// the Sheets API skips instead of clearing the cell.
func rowValues(fields map[string]any) []interface{} {
	row := make([]interface{}, len(Columns))
	for i, col := range Columns {
		if v, ok := fields[col]; ok {
			row[i] = v
		}
	}
	return row
}

func withID(fields map[string]any, rowID models.RowID) map[string]any {
	out := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		out[k] = v
	}
	out["id"] = int(rowID)
	return out
}

func lastColumn() string {
	return string(rune('A' + len(Columns) - 1))
}

func quote(title string) string {
	return "'" + title + "'"
}

var rangeRowRe = regexp.MustCompile(`!\$?[A-Za-z]+\$?(\d+)`)

// ParseRowNumber extracts the first row number from an A1 range such as
// "'salaried'!A5:L5".
func ParseRowNumber(a1 string) (models.RowID, error) {
	m := rangeRowRe.FindStringSubmatch(a1)
	if len(m) < 2 {
		return 0, fmt.Errorf("cannot parse row from range %q", a1)
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, fmt.Errorf("cannot parse row from range %q: %w", a1, err)
	}
	return models.RowID(n), nil
}
