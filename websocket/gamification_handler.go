package websocket

import (
	"net/http"
	"slices"

	"wolontariat/middlewares"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// NewUpgrader accepts upgrades from the allowed origins. Requests without an
// Origin header come from non-browser clients and are accepted.
func NewUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || slices.Contains(allowedOrigins, origin) || slices.Contains(allowedOrigins, "*")
		},
	}
}

// GamificationWebSocketHandler upgrades an authenticated request and keeps the
// connection registered with hub until the client goes away.
func GamificationWebSocketHandler(hub *Hub, upgrader websocket.Upgrader, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString(middlewares.ContextUserID)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization token required"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Warn("websocket upgrade error", zap.Error(err))
			return
		}

		client := NewGamificationClient(conn, userID)
		// Sent before Register starts the writer goroutine
		if err := client.SafeWriteJSON(gin.H{
			"type":    "connected",
			"message": "Connected to gamification updates",
			"userId":  userID,
		}); err != nil {
			conn.Close()
			return
		}
		hub.Register(client)
		defer hub.Unregister(client)

		// Reads only detect disconnects; control frames are answered by gorilla
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Debug("gamification websocket closed", zap.String("userId", userID), zap.Error(err))
				}
				return
			}
		}
	}
}
