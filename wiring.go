package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"fundboss/backend/clients/gsheets"
	"fundboss/backend/clients/sheety"
	"fundboss/backend/config"
	"fundboss/backend/database"
	"fundboss/backend/models"
	"fundboss/backend/services"
)

// state holds the stores that live in this service rather than in the lead
// store: captchas, the submission log and pending deletes.
type state struct {
	challenges  services.ChallengeStore
	submissions services.SubmissionLog
	pending     services.PendingDeleteStore
	close       func()
}

func openState(ctx context.Context, cfg config.Config, logger *slog.Logger) (*state, error) {
	if cfg.DatabaseURL == "" {
		logger.Info("no DATABASE_URL, keeping state in memory")
		return &state{
			challenges:  services.NewMemoryChallengeStore(),
			submissions: services.NewMemorySubmissionLog(),
			pending:     services.NewMemoryPendingDeletes(),
			close:       func() {},
		}, nil
	}

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := database.EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &state{
		challenges:  &database.ChallengeStore{Pool: pool},
		submissions: &database.SubmissionLog{Pool: pool},
		pending:     &database.PendingDeletes{Pool: pool},
		close:       pool.Close,
	}, nil
}

func newLeadStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (services.LeadStore, error) {
	tables := map[models.Sheet]string{
		models.SheetSalaried: cfg.SalariedSheet,
		models.SheetBusiness: cfg.BusinessSheet,
	}
	switch cfg.LeadStore {
	case config.LeadStoreGSheets:
		return gsheets.NewClient(ctx, gsheets.Options{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			CredentialsFile: cfg.GoogleCredentialsFile,
			APIKey:          cfg.GoogleAPIKey,
			Tables:          tables,
			Logger:          logger,
		})
	case config.LeadStoreSheety:
		return sheety.NewClient(sheety.Options{
			BaseURL:     cfg.SheetyBaseURL,
			UserID:      cfg.SheetyUserID,
			Project:     cfg.SheetyProject,
			Token:       cfg.SheetyToken,
			Tables:      tables,
			HTTPClient:  &http.Client{Timeout: cfg.StoreTimeout},
			RatePerSec:  cfg.StoreRatePerSec,
			MaxAttempts: cfg.StoreMaxAttempts,
			Logger:      logger,
		}), nil
	}
	return nil, fmt.Errorf("unknown lead store %q", cfg.LeadStore)
}
