package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/north-cloud/market-classifier/internal/logger"
	"github.com/jonesrussell/north-cloud/market-classifier/internal/naver"
	"github.com/jonesrussell/north-cloud/market-classifier/internal/news"
	"github.com/jonesrussell/north-cloud/market-classifier/internal/reportcache"
)

const downloadPath = "/api/v1/news/download/"

// CollectNews handles POST /api/v1/news/collect. Both JSON and form bodies
// are accepted.
func (h *Handler) CollectNews(c *gin.Context) {
	if h.news == nil {
		unavailable(c, "news collection")
		return
	}

	var req news.Request
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, err)
		return
	}

	res, err := h.news.Collect(c.Request.Context(), req)
	switch {
	case errors.Is(err, news.ErrNoCompanies), errors.Is(err, news.ErrInvalidDate), errors.Is(err, news.ErrInvalidPeriod):
		badRequest(c, err)
		return
	case errors.Is(err, naver.ErrMissingCredentials):
		unavailable(c, "news search credentials")
		return
	case err != nil:
		h.log(c).Error("News collection failed", logger.Error(err))
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "news search failed", Code: "UPSTREAM_ERROR"})
		return
	}

	c.JSON(http.StatusOK, CollectResponse{
		JobID:       res.JobID,
		DownloadURL: downloadPath + res.JobID,
		Stats:       res.Stats,
	})
}

// DownloadNews handles GET /api/v1/news/download/:job_id.
func (h *Handler) DownloadNews(c *gin.Context) {
	if h.news == nil {
		unavailable(c, "news collection")
		return
	}

	data, name, err := h.news.Download(c.Request.Context(), c.Param("job_id"))
	if errors.Is(err, reportcache.ErrNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error(), Code: "NOT_FOUND"})
		return
	}
	if err != nil {
		h.log(c).Error("Report download failed", logger.Error(err))
		internalError(c, "report download failed")
		return
	}

	if h.metrics != nil {
		h.metrics.RecordReportServed()
	}
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, xlsxContentType, data)
}
