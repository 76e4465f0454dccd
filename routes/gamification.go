package routes

import (
	"wolontariat/websocket"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SetupGamificationRoutes registers the websocket feed of badge, rating and
// enrollment events
func SetupGamificationRoutes(router *gin.RouterGroup, hub *websocket.Hub, allowedOrigins []string, log *zap.Logger) {
	router.GET("/ws/gamification", websocket.GamificationWebSocketHandler(hub, websocket.NewUpgrader(allowedOrigins), log.Named("ws")))
}
