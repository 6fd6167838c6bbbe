package models

type CaptchaVerifyRequest struct {
	ID        string `json:"id"`
	UserInput string `json:"userInput"`
}

type PANVerifyRequest struct {
	PanNumber string `json:"panNumber"`
}

type CreateLeadRequest struct {
	LeadData
}

type UpdateLeadRequest struct {
	RowID RowID  `json:"rowId"`
	Sheet string `json:"sheet"`
	LeadData
}

// SubmitLoanRequest carries identifiers only when the client went through
// create-lead/update-lead; older clients post the form data alone.
type SubmitLoanRequest struct {
	RowID RowID  `json:"rowId"`
	Sheet string `json:"sheet"`
	LeadData
}
