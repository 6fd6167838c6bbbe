package controllers

import (
	"log/slog"

	"fundboss/backend/services"
)

// Deps is everything the HTTP handlers call into.
type Deps struct {
	Captcha     services.Captcha
	Identity    services.IdentityChecker
	Leads       *services.LeadService
	Submissions services.SubmissionLog
	Logger      *slog.Logger
}
