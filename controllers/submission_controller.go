package controllers

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"fundboss/backend/models"
	"fundboss/backend/services"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// SubmitLoan finalizes a lead. rowId and sheet are optional; without both
// the lead is created directly in its category's sheet.
func SubmitLoan(leads *services.LeadService, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := c.GetRawData()
		if err != nil {
			badRequest(c, "invalid body")
			return
		}
		var raw map[string]any
		var req models.SubmitLoanRequest
		if err := json.Unmarshal(body, &raw); err != nil || raw == nil {
			badRequest(c, "invalid body")
			return
		}
		if err := json.Unmarshal(body, &req); err != nil {
			badRequest(c, "invalid body")
			return
		}

		var ref models.LeadRef
		if req.Sheet != "" {
			sheet, err := models.ParseSheet(req.Sheet)
			if err != nil {
				badRequest(c, "Invalid sheet")
				return
			}
			ref = models.LeadRef{Sheet: sheet, RowID: req.RowID}
		}

		if _, err := leads.Submit(c.Request.Context(), ref, req.LeadData, raw); err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Loan submitted & saved to Google Sheet"})
	}
}

func ListSubmissions(log services.SubmissionLog, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		subs, err := log.List(c.Request.Context())
		if err != nil {
			respondError(c, logger, err)
			return
		}
		if subs == nil {
			subs = []models.Submission{}
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "count": len(subs), "data": subs})
	}
}

func ExportSubmissions(log services.SubmissionLog, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		subs, err := log.List(c.Request.Context())
		if err != nil {
			respondError(c, logger, err)
			return
		}
		var buf bytes.Buffer
		if err := services.WriteSubmissionsXLSX(&buf, subs); err != nil {
			respondError(c, logger, err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="submissions.xlsx"`)
		c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
	}
}
