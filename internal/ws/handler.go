// internal/ws/handler.go
package ws

import (
	"net/http"

	"fieldworks-service/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin policy is enforced at the gateway.
		return true
	},
}

// HandleConnection upgrades an authenticated request to a websocket
// and starts the client pumps.
func (h *Hub) HandleConnection(c *gin.Context) {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	client := newClient(h, conn, tenantID)
	h.register <- client

	go client.writePump()
	go client.readPump()
}
