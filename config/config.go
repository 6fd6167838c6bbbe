package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	CaptchaModeSigned = "signed"
	CaptchaModeStored = "stored"

	LeadStoreSheety  = "sheety"
	LeadStoreGSheets = "gsheets"
)

type Config struct {
	Port       string
	GinMode    string
	CORSOrigin string

	CaptchaMode   string
	CaptchaSecret string
	CaptchaTTL    time.Duration
	PANCheckDelay time.Duration

	LeadStore     string
	SheetyBaseURL string
	SheetyUserID  string
	SheetyProject string
	SheetyToken   string
	SalariedSheet string
	BusinessSheet string

	StoreTimeout     time.Duration
	StoreMaxAttempts int
	StoreRatePerSec  float64

	GoogleSpreadsheetID   string
	GoogleCredentialsFile string
	GoogleAPIKey          string

	DatabaseURL string // optional; empty keeps captcha/submission/pending state in memory

	LogLevel string
	LogFile  string

	JanitorInterval    time.Duration
	JanitorMaxAttempts int
}

// Load reads the environment (after an optional .env file) into a Config.
// envFiles defaults to ".env"; a missing file is not an error.
func Load(envFiles ...string) (Config, error) {
	_ = godotenv.Load(envFiles...)

	var errs []error
	cfg := Config{
		Port:       get("PORT", "5000"),
		GinMode:    get("GIN_MODE", "release"),
		CORSOrigin: get("CORS_ORIGIN", "*"),

		CaptchaMode:   strings.ToLower(get("CAPTCHA_MODE", CaptchaModeSigned)),
		CaptchaSecret: get("CAPTCHA_SECRET", ""),
		CaptchaTTL:    duration("CAPTCHA_TTL", 5*time.Minute, &errs),
		PANCheckDelay: duration("PAN_CHECK_DELAY", time.Second, &errs),

		LeadStore:     strings.ToLower(get("LEAD_STORE", LeadStoreSheety)),
		SheetyBaseURL: strings.TrimRight(get("SHEETY_BASE_URL", "https://api.sheety.co"), "/"),
		SheetyUserID:  get("SHEETY_USER_ID", ""),
		SheetyProject: get("SHEETY_PROJECT", "harishProject"),
		SheetyToken:   get("SHEETY_TOKEN", ""),
		SalariedSheet: get("SALARIED_SHEET", "salaried"),
		BusinessSheet: get("BUSINESS_SHEET", "business"),

		StoreTimeout:     duration("STORE_TIMEOUT", 10*time.Second, &errs),
		StoreMaxAttempts: integer("STORE_MAX_ATTEMPTS", 3, &errs),
		StoreRatePerSec:  float("STORE_RATE_PER_SEC", 5, &errs),

		GoogleSpreadsheetID:   get("GOOGLE_SPREADSHEET_ID", ""),
		GoogleCredentialsFile: get("GOOGLE_CREDENTIALS_FILE", ""),
		GoogleAPIKey:          get("GOOGLE_API_KEY", ""),

		DatabaseURL: get("DATABASE_URL", ""),

		LogLevel: get("LOG_LEVEL", "info"),
		LogFile:  get("LOG_FILE", ""),

		JanitorInterval:    duration("JANITOR_INTERVAL", 30*time.Second, &errs),
		JanitorMaxAttempts: integer("JANITOR_MAX_ATTEMPTS", 10, &errs),
	}

	if err := cfg.Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return cfg, errors.Join(errs...)
	}
	return cfg, nil
}

// Validate checks cross-field requirements that depend on the selected modes.
func (c Config) Validate() error {
	var errs []error
	switch c.CaptchaMode {
	case CaptchaModeSigned:
		if c.CaptchaSecret == "" {
			errs = append(errs, errors.New("missing required env: CAPTCHA_SECRET"))
		}
	case CaptchaModeStored:
	default:
		errs = append(errs, fmt.Errorf("unknown CAPTCHA_MODE %q", c.CaptchaMode))
	}

	switch c.LeadStore {
	case LeadStoreSheety:
		if c.SheetyUserID == "" {
			errs = append(errs, errors.New("missing required env: SHEETY_USER_ID"))
		}
	case LeadStoreGSheets:
		if c.GoogleSpreadsheetID == "" {
			errs = append(errs, errors.New("missing required env: GOOGLE_SPREADSHEET_ID"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown LEAD_STORE %q", c.LeadStore))
	}

	if c.StoreMaxAttempts < 1 {
		errs = append(errs, errors.New("STORE_MAX_ATTEMPTS must be at least 1"))
	}
	return errors.Join(errs...)
}

func get(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func duration(k string, def time.Duration, errs *[]error) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("parse %s: %w", k, err))
		return def
	}
	return d
}

func integer(k string, def int, errs *[]error) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("parse %s: %w", k, err))
		return def
	}
	return n
}

func float(k string, def float64, errs *[]error) float64 {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("parse %s: %w", k, err))
		return def
	}
	return f
}
