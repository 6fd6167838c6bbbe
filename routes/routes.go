package routes

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"fundboss/backend/controllers"
)

func Register(r *gin.Engine, d controllers.Deps) {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.GET("/", controllers.Root())

	api := r.Group("/api")
	{
		api.GET("/test", controllers.Test())

		api.GET("/generate-captcha", controllers.GenerateCaptcha(d.Captcha, logger))
		api.POST("/verify-captcha", controllers.VerifyCaptcha(d.Captcha, logger))

		api.POST("/verify-pan", controllers.VerifyPAN(d.Identity, logger))

		// Lead lifecycle: create, then update per form step, then submit.
		api.POST("/create-lead", controllers.CreateLead(d.Leads, logger))
		api.PUT("/update-lead", controllers.UpdateLead(d.Leads, logger))
		api.POST("/submit-loan", controllers.SubmitLoan(d.Leads, logger))

		api.GET("/submit-loan", controllers.ListSubmissions(d.Submissions, logger))
		api.GET("/submit-loan/export", controllers.ExportSubmissions(d.Submissions, logger))
	}
}
