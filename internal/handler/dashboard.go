package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"optionbook/internal/service"
)

type DashboardHandler struct {
	Stats *service.StatsService
}

func (h *DashboardHandler) Register(r *gin.Engine) {
	r.GET("/api/v1/dashboard", h.dashboard)
}

func (h *DashboardHandler) dashboard(c *gin.Context) {
	if h.Stats == nil {
		Error(c, http.StatusInternalServerError, "stats unavailable", nil)
		return
	}
	stats, err := h.Stats.Stats(c.Request.Context())
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, stats, nil)
}
