package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func Root() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.String(http.StatusOK, "FundBoss API is running")
	}
}

func Test() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "API is reachable"})
	}
}
