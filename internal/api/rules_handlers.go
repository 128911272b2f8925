package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/north-cloud/market-classifier/internal/database"
	"github.com/jonesrussell/north-cloud/market-classifier/internal/domain"
	"github.com/jonesrussell/north-cloud/market-classifier/internal/logger"
)

// ListRules handles GET /api/v1/rules. ?enabled=true limits to active rules.
func (h *Handler) ListRules(c *gin.Context) {
	if h.rules == nil {
		unavailable(c, "rule storage")
		return
	}

	enabledOnly, _ := strconv.ParseBool(c.Query("enabled"))
	rules, err := h.rules.List(c.Request.Context(), enabledOnly)
	if err != nil {
		h.log(c).Error("Failed to list rules", logger.Error(err))
		internalError(c, "failed to load rules")
		return
	}
	c.JSON(http.StatusOK, RulesListResponse{Rules: rules, Total: len(rules)})
}

// CreateRule handles POST /api/v1/rules.
func (h *Handler) CreateRule(c *gin.Context) {
	if h.rules == nil {
		unavailable(c, "rule storage")
		return
	}

	var req CreateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	rule := domain.KeywordRule{
		Category: strings.TrimSpace(req.Category),
		Keyword:  strings.TrimSpace(req.Keyword),
		Scope:    strings.TrimSpace(req.Scope),
		Priority: req.Priority,
		Enabled:  req.Enabled == nil || *req.Enabled,
	}
	if rule.Category == "" || rule.Keyword == "" {
		badRequest(c, errors.New("category and keyword must not be blank"))
		return
	}

	if err := h.rules.Create(c.Request.Context(), &rule); err != nil {
		h.log(c).Error("Failed to create rule", logger.String("keyword", rule.Keyword), logger.Error(err))
		internalError(c, "failed to create rule")
		return
	}
	h.reload(c)

	c.JSON(http.StatusCreated, rule)
}

// DeleteRule handles DELETE /api/v1/rules/:id.
func (h *Handler) DeleteRule(c *gin.Context) {
	if h.rules == nil {
		unavailable(c, "rule storage")
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		badRequest(c, fmt.Errorf("invalid rule id %q", c.Param("id")))
		return
	}

	err = h.rules.Delete(c.Request.Context(), id)
	if errors.Is(err, database.ErrRuleNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error(), Code: "NOT_FOUND"})
		return
	}
	if err != nil {
		h.log(c).Error("Failed to delete rule", logger.Int("id", id), logger.Error(err))
		internalError(c, "failed to delete rule")
		return
	}
	h.reload(c)

	c.Status(http.StatusNoContent)
}

// reload pushes the stored enabled rules into the live keyword classifier.
// A failed reload keeps the previous rule set.
func (h *Handler) reload(c *gin.Context) {
	if h.reloader == nil {
		return
	}
	if err := ReloadRules(c.Request.Context(), h.rules, h.reloader); err != nil {
		h.log(c).Warn("Keyword rule reload failed", logger.Error(err))
	}
}

// ReloadRules loads enabled rules from s into r. An empty store keeps the
// current rules.
func ReloadRules(ctx context.Context, s RuleStore, r RuleReloader) error {
	rules, err := s.List(ctx, true)
	if err != nil {
		return fmt.Errorf("list rules: %w", err)
	}
	if len(rules) == 0 {
		return nil
	}
	r.Reload(rules)
	return nil
}
