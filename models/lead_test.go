package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestParseLoanCategory(t *testing.T) {
	cases := map[string]LoanCategory{
		"Salaried":   LoanSalaried,
		" business ": LoanBusiness,
		"BUSINESS":   LoanBusiness,
	}
	for in, want := range cases {
		got, err := ParseLoanCategory(in)
		if err != nil {
			t.Fatalf("%q: unexpected error %v", in, err)
		}
		if got != want {
			t.Errorf("%q: expected %v, got %v", in, want, got)
		}
	}
	if _, err := ParseLoanCategory("Student"); err == nil {
		t.Error("expected error for unknown category")
	}
	if _, err := ParseLoanCategory(""); err == nil {
		t.Error("expected error for empty category")
	}
}

func TestLoanCategorySheet(t *testing.T) {
	if LoanSalaried.Sheet() != SheetSalaried {
		t.Errorf("salaried maps to %s", LoanSalaried.Sheet())
	}
	if LoanBusiness.Sheet() != SheetBusiness {
		t.Errorf("business maps to %s", LoanBusiness.Sheet())
	}
}

func TestParseSheet(t *testing.T) {
	if s, err := ParseSheet("Business"); err != nil || s != SheetBusiness {
		t.Errorf("expected business, got %q %v", s, err)
	}
	if _, err := ParseSheet("sheet1"); err == nil {
		t.Error("expected error for unknown sheet")
	}
}

func TestLeadDataDecodesMixedScalars(t *testing.T) {
	body := `{"mobile":9876543210,"salary":"50000","hasPF":true,"loanAmount":250000.5,"pinCode":null,"loanCategory":"Business"}`
	var d LeadData
	if err := json.Unmarshal([]byte(body), &d); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if d.Mobile != "9876543210" {
		t.Errorf("mobile: got %q", d.Mobile)
	}
	if d.HasPF != "true" {
		t.Errorf("hasPF: got %q", d.HasPF)
	}
	if d.LoanAmount != "250000.5" {
		t.Errorf("loanAmount: got %q", d.LoanAmount)
	}
	if d.PinCode != "" {
		t.Errorf("pinCode: got %q", d.PinCode)
	}
	cat, err := d.Category()
	if err != nil || cat != LoanBusiness {
		t.Errorf("expected loanCategory fallback to Business, got %v %v", cat, err)
	}
}

func TestLeadDataRejectsObjects(t *testing.T) {
	var d LeadData
	if err := json.Unmarshal([]byte(`{"salary":{"amount":1}}`), &d); err == nil {
		t.Error("expected error for object value")
	}
}

func TestRowIDAcceptsStringsAndNumbers(t *testing.T) {
	var req UpdateLeadRequest
	if err := json.Unmarshal([]byte(`{"rowId":"12","sheet":"salaried","loanType":"Salaried"}`), &req); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if req.RowID != 12 {
		t.Errorf("expected 12, got %d", req.RowID)
	}
	if req.LoanType != "Salaried" {
		t.Errorf("embedded lead data not decoded: %+v", req.LeadData)
	}

	var bad UpdateLeadRequest
	if err := json.Unmarshal([]byte(`{"rowId":"abc"}`), &bad); err == nil {
		t.Error("expected error for non-numeric rowId")
	}
}

func TestLeadRefKnown(t *testing.T) {
	if (LeadRef{}).Known() {
		t.Error("zero ref should be unknown")
	}
	if !(LeadRef{Sheet: SheetBusiness, RowID: 3}).Known() {
		t.Error("expected known ref")
	}
	if (LeadRef{Sheet: SheetSalaried, RowID: 1}).Known() {
		t.Error("the header row is not a lead")
	}
	if !(LeadRef{Sheet: SheetSalaried, RowID: FirstDataRow}).Known() {
		t.Error("expected the first data row to be known")
	}
}

func TestSubmissionMarshalFlattens(t *testing.T) {
	s := Submission{
		Payload:   map[string]any{"mobile": "9876543210"},
		Timestamp: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	b, err := json.Marshal(s)
	if err != nil {
		t.Fatal(err)
	}
	got := string(b)
	if !strings.Contains(got, `"mobile":"9876543210"`) || !strings.Contains(got, `"timestamp":"2026-01-02T03:04:05Z"`) {
		t.Errorf("unexpected json %s", got)
	}
}
