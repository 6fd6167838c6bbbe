package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"fundboss/backend/apperrors"
	"fundboss/backend/clients/sheety"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serveError(t *testing.T, err error) (int, map[string]any) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/update-lead", nil)
	respondError(c, slog.New(slog.NewJSONHandler(io.Discard, nil)), err)

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json %q: %v", w.Body.String(), err)
	}
	return w.Code, body
}

func TestRespondErrorValidation(t *testing.T) {
	code, body := serveError(t, apperrors.Validation("Invalid loan type"))
	if code != http.StatusBadRequest || body["message"] != "Invalid loan type" || body["success"] != false {
		t.Errorf("unexpected %d %v", code, body)
	}
}

func TestRespondErrorUpstreamDetails(t *testing.T) {
	apiErr := &sheety.APIError{StatusCode: 402, Body: `{"errors":[{"detail":"quota"}]}`}
	code, body := serveError(t, apperrors.Upstream("update lead", fmt.Errorf("wrapped: %w", apiErr)))
	if code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", code)
	}
	if body["details"] != `{"errors":[{"detail":"quota"}]}` || body["error"] == "" {
		t.Errorf("unexpected body %v", body)
	}
}

func TestRespondErrorUpstreamTimeout(t *testing.T) {
	code, body := serveError(t, apperrors.Upstream("create lead", context.DeadlineExceeded))
	if code != http.StatusGatewayTimeout || body["error"] != "upstream timeout" {
		t.Errorf("unexpected %d %v", code, body)
	}
}

func TestRespondErrorOther(t *testing.T) {
	code, body := serveError(t, errors.New("disk on fire"))
	if code != http.StatusInternalServerError || body["error"] != "disk on fire" {
		t.Errorf("unexpected %d %v", code, body)
	}
	if _, ok := body["details"]; ok {
		t.Error("did not expect details")
	}
}

func TestRespondErrorLogsToInjectedLogger(t *testing.T) {
	var buf bytes.Buffer
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPut, "/api/update-lead", nil)

	respondError(c, slog.New(slog.NewJSONHandler(&buf, nil)), errors.New("sheety down"))

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected one json log line, got %q", buf.String())
	}
	if line["msg"] != "request failed" || line["error"] != "sheety down" {
		t.Errorf("unexpected log line %v", line)
	}
}
