package handler

import (
	"net/http"

	"github.com/Leoramirez777/gestor-prestamista/internal/apierror"
	"github.com/Leoramirez777/gestor-prestamista/internal/middleware"
	"github.com/Leoramirez777/gestor-prestamista/internal/service"

	"github.com/gin-gonic/gin"
)

type MetricsHandler struct{ svc service.MetricsService }

func NewMetricsHandler(svc service.MetricsService) *MetricsHandler {
	return &MetricsHandler{svc: svc}
}

// Summary godoc
// @Summary Metricas generales de la cartera
// @Description Sellers and collectors only see the portfolio of their own loans.
// @Tags metricas
// @Produce json
// @Security BearerAuth
// @Param empleado_id query string false "Filtra por vendedor"
// @Success 200 {object} dto.SummaryMetricsResponse
// @Router /v1/metricas/resumen [get]
func (h *MetricsHandler) Summary(c *gin.Context) {
	id, ok := queryUUID(c, "empleado_id")
	if !ok {
		return
	}
	claims := middleware.GetClaims(c)
	if propio, ok := claims.Empleado(); ok && !esBackOffice(claims.Rol) {
		id = &propio
	}
	resp, err := h.svc.GetSummaryMetrics(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *MetricsHandler) DueToday(c *gin.Context) {
	resp, err := h.svc.GetDueToday(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// DueNext lists installments due in the next ?dias= days (default 7).
func (h *MetricsHandler) DueNext(c *gin.Context) {
	dias, ok := queryInt(c, "dias", 7)
	if !ok {
		return
	}
	resp, err := h.svc.GetDueNext(c.Request.Context(), dias)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *MetricsHandler) Period(c *gin.Context) {
	desde, hasta, ok := rangoOpcional(c)
	if !ok {
		return
	}
	if desde == nil || hasta == nil {
		c.JSON(http.StatusBadRequest, apierror.New("desde y hasta son requeridos"))
		return
	}
	id, ok := queryUUID(c, "empleado_id")
	if !ok {
		return
	}
	resp, err := h.svc.GetPeriodMetrics(c.Request.Context(), *desde, *hasta, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *MetricsHandler) Profitability(c *gin.Context) {
	resp, err := h.svc.GetProfitability(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Segments accepts ?dimension=monto|antiguedad|morosidad&desde=&hasta=.
func (h *MetricsHandler) Segments(c *gin.Context) {
	desde, hasta, ok := rangoOpcional(c)
	if !ok {
		return
	}
	dim := c.DefaultQuery("dimension", service.DimensionMonto)
	resp, err := h.svc.GetSegmentMetrics(c.Request.Context(), dim, desde, hasta)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
