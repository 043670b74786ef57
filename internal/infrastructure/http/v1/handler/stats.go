package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/jaennil/guide_helper/backend/terrain/pkg/logger"
)

func (h *Handler) Stats(c *gin.Context) {
	h.RespondWithJSON(c, http.StatusOK, "frame stats", h.stats.Stats())
}

// Stream pushes a stats snapshot over a websocket every stream interval
// until the client goes away.
func (h *Handler) Stream(c *gin.Context) {
	l := requestLogger(c)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		l.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	// The reader only notices the peer closing.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(h.streamInterval)
	defer ticker.Stop()

	for {
		_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteJSON(h.stats.Stats()); err != nil {
			l.Debug("stats stream closed", "error", err)
			return
		}

		select {
		case <-gone:
			return
		case <-h.quit:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(time.Second))
			return
		case <-ticker.C:
		}
	}
}

func requestLogger(c *gin.Context) logger.Logger {
	if v, ok := c.Get("logger"); ok {
		if l, ok := v.(logger.Logger); ok {
			return l
		}
	}
	return logger.FromContext(c.Request.Context())
}
