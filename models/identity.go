package models

// Identity is the result of a PAN lookup.
type Identity struct {
	FullName string `json:"fullName"`
}
