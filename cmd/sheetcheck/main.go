// Command sheetcheck tries Sheety project and sheet names to find the
// combination a deployment should point at.
package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"fundboss/backend/clients/sheety"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	_ = godotenv.Load()

	var (
		baseURL  string
		userID   string
		token    string
		projects []string
		sheets   []string
		timeout  time.Duration
	)
	flagSet := pflag.NewFlagSet("sheetcheck", pflag.ContinueOnError)
	flagSet.StringVar(&baseURL, "base-url", envOr("SHEETY_BASE_URL", "https://api.sheety.co"), "Sheety API base URL")
	flagSet.StringVar(&userID, "user", os.Getenv("SHEETY_USER_ID"), "Sheety user id")
	flagSet.StringVar(&token, "token", os.Getenv("SHEETY_TOKEN"), "bearer token, if the project requires one")
	flagSet.StringSliceVar(&projects, "project", []string{envOr("SHEETY_PROJECT", "harishProject")}, "project names to try (repeatable or comma separated)")
	flagSet.StringSliceVar(&sheets, "sheet", []string{"salaried", "business"}, "sheet names to try (repeatable or comma separated)")
	flagSet.DurationVar(&timeout, "timeout", 10*time.Second, "per-request timeout")
	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}
	if userID == "" {
		return fmt.Errorf("--user or SHEETY_USER_ID is required")
	}

	client := sheety.NewClient(sheety.Options{
		BaseURL:    baseURL,
		UserID:     userID,
		Token:      token,
		HTTPClient: &http.Client{Timeout: timeout},
	})

	found := 0
	for _, project := range projects {
		for _, sheet := range sheets {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			status, err := client.CheckSheet(ctx, project, sheet)
			cancel()
			switch {
			case err != nil:
				fmt.Fprintf(out, "MISSING: %s/%s (%v)\n", project, sheet, err)
			case status >= 200 && status < 300:
				found++
				fmt.Fprintf(out, "FOUND: %s/%s - Status: %d\n", project, sheet, status)
			default:
				fmt.Fprintf(out, "MISSING: %s/%s (%d)\n", project, sheet, status)
			}
		}
	}
	if found == 0 {
		return fmt.Errorf("no project/sheet combination answered")
	}
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
