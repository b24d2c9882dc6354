package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	HealthPath  = "/healthz"
	MetricsPath = "/metrics"

	healthCheckTimeout        = 2 * time.Second
	healthStatusOK            = "ok"
	errorValueDatabaseOffline = "database_unavailable"
)

type HealthHandlers struct {
	database *gorm.DB
	logger   *zap.Logger
}

func NewHealthHandlers(database *gorm.DB, logger *zap.Logger) *HealthHandlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HealthHandlers{database: database, logger: logger}
}

// Health pings the database and reports ok when it answers.
func (handlers *HealthHandlers) Health(ginContext *gin.Context) {
	if handlers.database == nil {
		ginContext.JSON(http.StatusOK, gin.H{"status": healthStatusOK})
		return
	}
	sqlDatabase, handleErr := handlers.database.DB()
	if handleErr != nil {
		handlers.logger.Warn("health_database_handle", zap.Error(handleErr))
		ginContext.JSON(http.StatusServiceUnavailable, gin.H{"error": errorValueDatabaseOffline})
		return
	}
	pingContext, cancel := context.WithTimeout(ginContext.Request.Context(), healthCheckTimeout)
	defer cancel()
	if pingErr := sqlDatabase.PingContext(pingContext); pingErr != nil {
		handlers.logger.Warn("health_database_ping", zap.Error(pingErr))
		ginContext.JSON(http.StatusServiceUnavailable, gin.H{"error": errorValueDatabaseOffline})
		return
	}
	ginContext.JSON(http.StatusOK, gin.H{"status": healthStatusOK})
}
