package controllers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"fundboss/backend/apperrors"
	"fundboss/backend/models"
	"fundboss/backend/services"
)

func VerifyPAN(checker services.IdentityChecker, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.PANVerifyRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid body")
			return
		}
		id, err := checker.Check(c.Request.Context(), req.PanNumber)
		if err != nil {
			respondError(c, logger, apperrors.Upstream("verify pan", err))
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "data": id})
	}
}
