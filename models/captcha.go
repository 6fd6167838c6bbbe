package models

import "time"

// Challenge is an issued captcha. ID is the opaque token the client sends
// back with its answer.
type Challenge struct {
	ID        string
	Text      string
	ExpiresAt time.Time
}
