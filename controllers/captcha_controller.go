package controllers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"fundboss/backend/models"
	"fundboss/backend/services"
)

func GenerateCaptcha(captcha services.Captcha, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ch, err := captcha.Issue(c.Request.Context())
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "id": ch.ID, "challenge": ch.Text})
	}
}

func VerifyCaptcha(captcha services.Captcha, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.CaptchaVerifyRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid body")
			return
		}
		if err := captcha.Verify(c.Request.Context(), req.ID, req.UserInput); err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}
