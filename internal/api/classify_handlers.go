package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/north-cloud/market-classifier/internal/domain"
	"github.com/jonesrussell/north-cloud/market-classifier/internal/logger"
)

// Classify handles POST /api/v1/classify.
func (h *Handler) Classify(c *gin.Context) {
	var req ClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	in := domain.ClassificationInput{Text: req.Text, SourceHint: req.SourceHint}
	res := h.classifier.Classify(in)

	if h.recorder != nil {
		if err := h.recorder.Record(c.Request.Context(), in, res); err != nil {
			h.log(c).Warn("Failed to record classification", logger.Error(err))
		}
	}

	c.JSON(http.StatusOK, toClassifyResponse("", res, h.classifier.Locale()))
}

// ClassifyBatch handles POST /api/v1/classify/batch.
func (h *Handler) ClassifyBatch(c *gin.Context) {
	var req BatchClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	inputs := make([]domain.ClassificationInput, len(req.Items))
	for i, it := range req.Items {
		inputs[i] = domain.ClassificationInput{Text: it.Text, SourceHint: it.SourceHint}
	}

	results, err := h.batch.Process(c.Request.Context(), inputs)
	if err != nil {
		h.log(c).Error("Batch classification failed", logger.Int("items", len(inputs)), logger.Error(err))
		internalError(c, "batch classification failed")
		return
	}

	loc := h.classifier.Locale()
	resp := BatchClassifyResponse{Results: make([]ClassifyResponse, len(results)), Total: len(results)}
	for i, r := range results {
		resp.Results[i] = toClassifyResponse(req.Items[r.Index].ID, r.Result, loc)
	}

	h.log(c).Info("Batch classified", logger.Int("items", len(results)))
	c.JSON(http.StatusOK, resp)
}

// Simulate handles POST /api/v1/classify/simulate.
func (h *Handler) Simulate(c *gin.Context) {
	var req SimulateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	rows := h.classifier.SimulateBatch(req.Texts, req.SourceHint)
	c.JSON(http.StatusOK, SimulateResponse{Rows: rows, Total: len(rows)})
}

// Taxonomy handles GET /api/v1/taxonomy. ?locale=ko switches the labels.
func (h *Handler) Taxonomy(c *gin.Context) {
	loc := h.classifier.Locale()
	if q := c.Query("locale"); q != "" {
		loc = domain.ParseLocale(q)
	}

	resp := TaxonomyResponse{
		Locale:      loc,
		Geographies: make([]string, 0, len(domain.Geographies)),
		Domains:     make([]string, 0, len(domain.DomainPriority)),
		ReasonCodes: domain.ReasonCodes,
		Whitelist:   domain.Whitelist(loc),
	}
	for _, g := range domain.Geographies {
		resp.Geographies = append(resp.Geographies, g.Label(loc))
	}
	for _, d := range domain.DomainPriority {
		resp.Domains = append(resp.Domains, d.Label(loc))
	}
	c.JSON(http.StatusOK, resp)
}
