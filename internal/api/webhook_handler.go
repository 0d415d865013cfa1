package api

import (
	"net/http"
	"time"

	"github.com/AlexanderMakarov/tgjournals/internal/service"
	"github.com/AlexanderMakarov/tgjournals/internal/telegram"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const serviceName = "tgjournals"

// webhook answers an update with the Bot API method in the response body,
// saving a round trip. Handler failures still get a 200 so Telegram does
// not redeliver.
func (r *Router) webhook(c *gin.Context) {
	var update telegram.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		r.log.Warn("Invalid update payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "INVALID_UPDATE",
			"message": err.Error(),
		})
		return
	}

	method, ok := r.dispatcher.Dispatch(c.Request.Context(), update)
	if !ok {
		c.String(http.StatusOK, "OK")
		return
	}
	c.JSON(http.StatusOK, method)
}

// healthResponse is the body of GET /health.
type healthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Timestamp int64  `json:"timestamp"`
	*service.HealthStatus
}

func (r *Router) healthCheck(c *gin.Context) {
	status, err := r.services.Health.Status(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":    "DOWN",
			"service":   serviceName,
			"error":     err.Error(),
			"timestamp": time.Now().Unix(),
		})
		return
	}

	c.JSON(http.StatusOK, healthResponse{
		Status:       "UP",
		Service:      serviceName,
		Timestamp:    time.Now().Unix(),
		HealthStatus: status,
	})
}
