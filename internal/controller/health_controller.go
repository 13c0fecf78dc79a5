package controller

import (
	"learnpulse_backend/internal/util"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type HealthController struct {
	DB        *gorm.DB
	StartedAt time.Time
}

func NewHealthController(db *gorm.DB) *HealthController {
	return &HealthController{DB: db, StartedAt: time.Now()}
}

// Health godoc
// @Summary Service health check
// @Tags system
// @Produce  json
// @Success 200 {object} util.Response{data=object} "Success"
// @Router /health [get]
func (c *HealthController) Health(ctx *gin.Context) {
	dbStatus := "ok"
	if sqlDB, err := c.DB.DB(); err != nil || sqlDB.Ping() != nil {
		dbStatus = "unavailable"
	}

	util.Success(ctx, gin.H{
		"status":   "ok",
		"database": dbStatus,
		"uptime":   time.Since(c.StartedAt).String(),
	})
}
