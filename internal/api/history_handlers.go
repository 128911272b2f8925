package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/north-cloud/market-classifier/internal/logger"
)

// ListHistory handles GET /api/v1/history?limit=&offset=.
func (h *Handler) ListHistory(c *gin.Context) {
	if h.history == nil {
		unavailable(c, "classification history")
		return
	}

	limit := queryInt(c, "limit", defaultPageLimit)
	limit = min(max(limit, 1), maxPageLimit)
	offset := max(queryInt(c, "offset", 0), 0)

	ctx := c.Request.Context()
	items, err := h.history.List(ctx, limit, offset)
	if err != nil {
		h.log(c).Error("Failed to list history", logger.Error(err))
		internalError(c, "failed to load history")
		return
	}
	total, err := h.history.Count(ctx)
	if err != nil {
		h.log(c).Error("Failed to count history", logger.Error(err))
		internalError(c, "failed to load history")
		return
	}

	c.JSON(http.StatusOK, HistoryListResponse{Items: items, Total: total, Limit: limit, Offset: offset})
}

// HistoryStats handles GET /api/v1/history/stats.
func (h *Handler) HistoryStats(c *gin.Context) {
	if h.history == nil {
		unavailable(c, "classification history")
		return
	}

	counts, err := h.history.CountByReason(c.Request.Context())
	if err != nil {
		h.log(c).Error("Failed to aggregate history", logger.Error(err))
		internalError(c, "failed to load history stats")
		return
	}

	total := 0
	for _, rc := range counts {
		total += rc.Count
	}
	c.JSON(http.StatusOK, HistoryStatsResponse{Total: total, ByReason: counts})
}

func queryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return def
	}
	return v
}
