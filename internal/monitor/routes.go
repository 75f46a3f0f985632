package monitor

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SetupRouter wires the dashboard's three endpoints: a health check, a
// JSON snapshot of every run completed so far, and the live websocket
// feed. sessionID identifies this engine process in the health response
// for multi-process deployments sharing one dashboard frontend.
//
// Mirrors this module's earlier HTTP router setup shape.
func SetupRouter(hub *Hub) *gin.Engine {
	sessionID := uuid.New().String()
	r := gin.Default()

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "operational", "sessionId": sessionID})
	})
	r.GET("/runs", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"runs": hub.Runs()})
	})
	r.GET("/ws", hub.Subscribe)

	return r
}
