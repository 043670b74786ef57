package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jaennil/guide_helper/backend/terrain/internal/infrastructure/http/v1/dto"
	"github.com/jaennil/guide_helper/backend/terrain/internal/repository/dump"
)

// Tile serves a dumped CPU tile as a TIFF image.
func (h *Handler) Tile(c *gin.Context) {
	l := requestLogger(c)

	var req dto.TileRequest
	if err := c.ShouldBindUri(&req); err != nil {
		l.Warn("invalid tile path", "error", err)
		h.RespondWithJSON(c, http.StatusBadRequest, "tree, lod, x and y should be non-negative integers", nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		l.Warn("invalid tile request", "error", err)
		h.RespondWithJSON(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	if h.tileDumpUseCase == nil {
		h.RespondWithJSON(c, http.StatusServiceUnavailable, "tile dumps are disabled", nil)
		return
	}

	data, err := h.tileDumpUseCase.GetDumpedTile(req.Layer, req.Tree, req.LOD, req.X, req.Y)
	if err != nil {
		if errors.Is(err, dump.ErrNotFound) {
			h.RespondWithJSON(c, http.StatusNotFound, "tile has not been dumped", nil)
			return
		}
		l.Error("failed to get dumped tile", "error", err)
		h.RespondWithInternalServerError(c)
		return
	}

	c.Data(http.StatusOK, "image/tiff", data)
}
