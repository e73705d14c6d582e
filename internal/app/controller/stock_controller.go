package controller

import (
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/ikkim/storefront-backend/internal/middleware"
	ws "github.com/ikkim/storefront-backend/internal/websocket"
)

// StockController serves the live stock feed.
type StockController struct {
	hub      *ws.Hub
	upgrader *websocket.Upgrader
}

func NewStockController(hub *ws.Hub, allowedOrigins []string) *StockController {
	return &StockController{
		hub:      hub,
		upgrader: ws.NewUpgrader(allowedOrigins),
	}
}

// StockFeed upgrades to a websocket that receives stock updates
// GET /products/stock/ws
func (ctrl *StockController) StockFeed(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	conn, err := ctrl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the error response
		log.Warn("Failed to upgrade to WebSocket", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	client := ws.NewClient(ctrl.hub, &ws.Conn{Conn: conn})
	ctrl.hub.Register(client)

	log.Info("Stock feed connected", map[string]interface{}{
		"remote_addr": c.ClientIP(),
	})

	go client.WritePump()
	go client.ReadPump()
}
