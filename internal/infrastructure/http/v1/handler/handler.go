package handler

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"github.com/jaennil/guide_helper/backend/terrain/internal/streaming"
	"github.com/jaennil/guide_helper/backend/terrain/internal/usecase"
)

const (
	internalServerErrorText = "the server encountered an error and could not process your request"
)

type response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// StatsSource publishes frame statistics; streaming.Driver implements it.
type StatsSource interface {
	Stats() streaming.Stats
}

type Handler struct {
	validate        *validator.Validate
	tileDumpUseCase *usecase.TileDumpUseCase
	stats           StatsSource
	streamInterval  time.Duration
	upgrader        websocket.Upgrader

	quit     chan struct{}
	quitOnce sync.Once
}

// NewHandler wires the debug API. uc may be nil when tile dumps are
// disabled.
func NewHandler(v *validator.Validate, uc *usecase.TileDumpUseCase, stats StatsSource, streamInterval time.Duration) *Handler {
	return &Handler{
		validate:        v,
		tileDumpUseCase: uc,
		stats:           stats,
		streamInterval:  streamInterval,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		quit: make(chan struct{}),
	}
}

// Shutdown ends every open stats stream. Hijacked websocket connections are
// not tracked by http.Server.Shutdown.
func (h *Handler) Shutdown() {
	h.quitOnce.Do(func() { close(h.quit) })
}

func (h *Handler) RespondWithInternalServerError(c *gin.Context) {
	h.RespondWithJSON(c, http.StatusInternalServerError, internalServerErrorText, nil)
}

func (h *Handler) RespondWithJSON(c *gin.Context, code int, message string, data any) {
	success := code < 400

	r := response{
		Success: success,
		Message: message,
		Data:    data,
	}

	c.JSON(code, r)
}
