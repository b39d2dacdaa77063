package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"optionbook/internal/engine"
	"optionbook/internal/repository"
	"optionbook/internal/service"
)

type StrategyHandler struct {
	Service *service.StrategyService
}

func (h *StrategyHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1/strategies")
	group.GET("", h.list)
	group.POST("", h.create)
	group.GET("/:id", h.get)
	group.PUT("/:id", h.update)
	group.DELETE("/:id", h.delete)
	group.POST("/:id/exit", h.exit)
	group.GET("/:id/payoff", h.payoff)
	group.GET("/:id/summary", h.summary)

	// Ad-hoc charting for strategies being built in the UI.
	r.POST("/api/v1/payoff", h.payoffPreview)
}

func (h *StrategyHandler) list(c *gin.Context) {
	if h.Service == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	params := repository.ListStrategiesParams{
		Limit:   queryInt(c, "limit", 0),
		Offset:  queryInt(c, "offset", 0),
		OrderBy: c.Query("order_by"),
	}
	if status := strings.TrimSpace(c.Query("status")); status != "" {
		params.Status = &status
	}
	items, total, err := h.Service.List(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, map[string]any{"total": total})
}

func (h *StrategyHandler) create(c *gin.Context) {
	if h.Service == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	var input service.StrategyInput
	if err := c.ShouldBindJSON(&input); err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	item, err := h.Service.Create(c.Request.Context(), input)
	if err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	Ok(c, item, nil)
}

func (h *StrategyHandler) get(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	item, err := h.Service.Get(c.Request.Context(), id)
	if err != nil {
		h.serviceError(c, err)
		return
	}
	Ok(c, item, nil)
}

func (h *StrategyHandler) update(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var input service.StrategyInput
	if err := c.ShouldBindJSON(&input); err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	item, err := h.Service.Update(c.Request.Context(), id, input)
	if err != nil {
		h.serviceError(c, err)
		return
	}
	Ok(c, item, nil)
}

func (h *StrategyHandler) delete(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	if err := h.Service.Delete(c.Request.Context(), id); err != nil {
		h.serviceError(c, err)
		return
	}
	Ok(c, map[string]any{"id": id, "deleted": true}, nil)
}

func (h *StrategyHandler) exit(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var input service.ExitInput
	if err := c.ShouldBindJSON(&input); err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	item, err := h.Service.Exit(c.Request.Context(), id, input)
	if err != nil {
		h.serviceError(c, err)
		return
	}
	Ok(c, item, nil)
}

func (h *StrategyHandler) payoff(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	out, err := h.Service.Payoff(c.Request.Context(), id, queryFloat(c, "range", 0))
	if err != nil {
		h.serviceError(c, err)
		return
	}
	Ok(c, out, nil)
}

func (h *StrategyHandler) summary(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	out, err := h.Service.Summary(c.Request.Context(), id, queryFloat(c, "range", 0))
	if err != nil {
		h.serviceError(c, err)
		return
	}
	Ok(c, out, nil)
}

type payoffPreviewRequest struct {
	UnderlyingPrice decimal.Decimal `json:"underlying_price"`
	RangePercent    float64         `json:"range_percent"`
	Legs            []engine.Leg    `json:"legs"`
}

func (h *StrategyHandler) payoffPreview(c *gin.Context) {
	var req payoffPreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if err := engine.ValidateLegs(req.Legs); err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	Ok(c, service.PayoffForLegs(req.Legs, req.UnderlyingPrice, req.RangePercent), nil)
}

func (h *StrategyHandler) pathID(c *gin.Context) (uint64, bool) {
	if h.Service == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return 0, false
	}
	id, err := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if err != nil || id == 0 {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return 0, false
	}
	return id, true
}

func (h *StrategyHandler) serviceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		Error(c, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, service.ErrNotFullyExited),
		errors.Is(err, service.ErrSnapshotExists),
		errors.Is(err, service.ErrCompletedReadOnly):
		Error(c, http.StatusConflict, err.Error(), nil)
	default:
		Error(c, http.StatusBadGateway, err.Error(), nil)
	}
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func queryFloat(c *gin.Context, key string, fallback float64) float64 {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return v
}
