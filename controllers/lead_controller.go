package controllers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"fundboss/backend/models"
	"fundboss/backend/services"
)

func CreateLead(leads *services.LeadService, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.CreateLeadRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid body")
			return
		}
		res, err := leads.Create(c.Request.Context(), req.LeadData)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, leadResponse(res))
	}
}

func UpdateLead(leads *services.LeadService, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.UpdateLeadRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid body")
			return
		}
		sheet, err := models.ParseSheet(req.Sheet)
		if err != nil {
			badRequest(c, "Invalid sheet")
			return
		}
		res, err := leads.Update(c.Request.Context(), models.LeadRef{Sheet: sheet, RowID: req.RowID}, req.LeadData)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, leadResponse(res))
	}
}

func leadResponse(res services.LeadResult) gin.H {
	return gin.H{"success": true, "sheet": res.Sheet, "rowId": res.RowID, "data": res.Data}
}
