// internal/api/handlers/websocket_handler.go
package handlers

import (
	"net/http"
	"time"

	"po-bridge-api-server/internal/api/middleware"
	"po-bridge-api-server/internal/api/respond"
	"po-bridge-api-server/internal/apperr"
	"po-bridge-api-server/internal/logger"
	"po-bridge-api-server/internal/socket"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// pongWait is how long a dashboard may stay silent before the socket is dropped.
const pongWait = 60 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WebSocketHandler struct {
	Hub      *socket.Hub
	Sessions middleware.SessionResolver
	Log      *logger.Logger
}

// ServeWs upgrades a buyer dashboard connection. Browsers cannot set headers on a
// websocket handshake, so the JWT travels in the token query parameter.
func (h *WebSocketHandler) ServeWs(c *gin.Context) {
	tokenString := c.Query("token")
	if tokenString == "" {
		respond.Error(c, h.Log, apperr.New(apperr.KindUnauthorized, "token is required"))
		return
	}
	sess, err := h.Sessions.Resolve(c.Request.Context(), tokenString)
	if err != nil {
		respond.Error(c, h.Log, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.Log.Warn(h.Log.WithField(c.Request.Context(), "error", err.Error()), "websocket upgrade failed")
		return
	}

	h.Hub.Register(sess.UserID, conn)
	defer func() {
		h.Hub.Unregister(sess.UserID, conn)
		conn.Close()
	}()

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPingHandler(func(appData string) error {
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		return conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(time.Second))
	})
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.Log.Warn(h.Log.WithField(c.Request.Context(), "error", err.Error()), "websocket closed unexpectedly")
			}
			return
		}
		// any client frame counts as liveness
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	}
}
