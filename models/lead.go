package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Sheet is a category-specific table in the lead store.
type Sheet string

const (
	SheetSalaried Sheet = "salaried"
	SheetBusiness Sheet = "business"

	DefaultSheet = SheetSalaried
)

func ParseSheet(s string) (Sheet, error) {
	switch Sheet(strings.ToLower(strings.TrimSpace(s))) {
	case SheetSalaried:
		return SheetSalaried, nil
	case SheetBusiness:
		return SheetBusiness, nil
	}
	return "", fmt.Errorf("unknown sheet %q", s)
}

// Category returns the loan category whose leads live in this sheet.
func (s Sheet) Category() LoanCategory {
	if s == SheetBusiness {
		return LoanBusiness
	}
	return LoanSalaried
}

// LoanCategory is the declared loan type. The zero value is not a category.
type LoanCategory int

const (
	LoanSalaried LoanCategory = iota + 1
	LoanBusiness
)

func ParseLoanCategory(s string) (LoanCategory, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "salaried":
		return LoanSalaried, nil
	case "business":
		return LoanBusiness, nil
	}
	return 0, fmt.Errorf("unknown loan category %q", s)
}

func (c LoanCategory) String() string {
	switch c {
	case LoanSalaried:
		return "Salaried"
	case LoanBusiness:
		return "Business"
	}
	return fmt.Sprintf("LoanCategory(%d)", int(c))
}

// Sheet returns the table that holds leads of this category.
func (c LoanCategory) Sheet() Sheet {
	if c == LoanBusiness {
		return SheetBusiness
	}
	return SheetSalaried
}

type LeadStatus string

const (
	StatusStarted    LeadStatus = "Started"
	StatusInProgress LeadStatus = "In Progress"
	StatusSubmitted  LeadStatus = "Submitted"
)

// FlexString accepts a JSON string, number or bool. Form builders are not
// consistent about quoting salary, loanAmount or the yes/no flags.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case float64:
		*f = FlexString(strconv.FormatFloat(t, 'f', -1, 64))
	case bool:
		*f = FlexString(strconv.FormatBool(t))
	default:
		return fmt.Errorf("unsupported value %s", string(b))
	}
	return nil
}

func (f FlexString) String() string {
	return strings.TrimSpace(string(f))
}

// RowID is the store-assigned row identifier. Zero means unknown.
type RowID int

// FirstDataRow is the first row under the header row in both stores.
const FirstDataRow RowID = 2

func (r *RowID) UnmarshalJSON(b []byte) error {
	var s FlexString
	if err := s.UnmarshalJSON(b); err != nil {
		return err
	}
	if s.String() == "" {
		*r = 0
		return nil
	}
	n, err := strconv.Atoi(s.String())
	if err != nil {
		return fmt.Errorf("invalid rowId %q", s.String())
	}
	*r = RowID(n)
	return nil
}

// LeadData is the accumulated multi-step form state.
type LeadData struct {
	Mobile               FlexString `json:"mobile"`
	PinCode              FlexString `json:"pinCode"`
	PanNumber            FlexString `json:"panNumber"`
	FullName             FlexString `json:"fullName"`
	LoanType             FlexString `json:"loanType"`
	LoanCategory         FlexString `json:"loanCategory"`
	LoanAmount           FlexString `json:"loanAmount"`
	Salary               FlexString `json:"salary"`
	Designation          FlexString `json:"designation"`
	HasPF                FlexString `json:"hasPF"`
	HasGST               FlexString `json:"hasGST"`
	BusinessRegistration FlexString `json:"businessRegistration"`
}

// Category resolves the declared loan category from loanType, falling back
// to loanCategory.
func (d LeadData) Category() (LoanCategory, error) {
	declared := d.LoanType.String()
	if declared == "" {
		declared = d.LoanCategory.String()
	}
	return ParseLoanCategory(declared)
}

// LeadRef addresses a lead row. Clients hold it between requests.
type LeadRef struct {
	Sheet Sheet `json:"sheet"`
	RowID RowID `json:"rowId"`
}

func (r LeadRef) Known() bool {
	return r.Sheet != "" && r.RowID >= FirstDataRow
}

// Row is a lead row as returned by the store.
type Row struct {
	ID     RowID
	Fields map[string]any
}
