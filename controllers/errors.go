package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"fundboss/backend/apperrors"
)

// respondError maps validation errors to 400, upstream deadlines to 504 and
// everything else to 500 with the upstream body as details.
func respondError(c *gin.Context, logger *slog.Logger, err error) {
	var ve *apperrors.ValidationError
	if errors.As(err, &ve) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": ve.Message})
		return
	}

	logger.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)

	var ue *apperrors.UpstreamError
	if errors.As(err, &ue) {
		if ue.Timeout {
			c.JSON(http.StatusGatewayTimeout, gin.H{"success": false, "error": "upstream timeout"})
			return
		}
		body := gin.H{"success": false, "error": ue.Error()}
		if d := ue.Details(); d != "" {
			body["details"] = d
		}
		c.JSON(http.StatusInternalServerError, body)
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": message})
}
