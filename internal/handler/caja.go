package handler

import (
	"net/http"
	"time"

	"github.com/Leoramirez777/gestor-prestamista/internal/apierror"
	"github.com/Leoramirez777/gestor-prestamista/internal/dto"
	"github.com/Leoramirez777/gestor-prestamista/internal/infra"
	"github.com/Leoramirez777/gestor-prestamista/internal/service"
	"github.com/Leoramirez777/gestor-prestamista/internal/timeutil"

	"github.com/gin-gonic/gin"
)

type CajaHandler struct{ svc service.CajaService }

func NewCajaHandler(svc service.CajaService) *CajaHandler { return &CajaHandler{svc: svc} }

// ObtenerCierre godoc
// @Summary Estado de la caja central de una fecha
// @Description Cierra automaticamente los dias anteriores pendientes antes de responder.
// @Tags caja
// @Produce json
// @Security BearerAuth
// @Param fecha path string true "AAAA-MM-DD"
// @Success 200 {object} dto.CierreCajaResponse
// @Router /v1/caja/dia/{fecha} [get]
func (h *CajaHandler) ObtenerCierre(c *gin.Context) {
	fecha, ok := paramFecha(c, "fecha")
	if !ok {
		return
	}
	resp, err := h.svc.ObtenerCierre(c.Request.Context(), fecha)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CajaHandler) Hoy(c *gin.Context) {
	resp, err := h.svc.ObtenerCierre(c.Request.Context(), h.svc.Hoy())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RegistrarMovimiento godoc
// @Summary Registra un ingreso o egreso manual en la caja central
// @Tags caja
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.MovimientoCajaRequest true "Movimiento"
// @Success 201 {object} dto.MovimientoCajaResponse
// @Failure 409 {object} apierror.APIError "Dia cerrado"
// @Router /v1/caja/movimientos [post]
func (h *CajaHandler) RegistrarMovimiento(c *gin.Context) {
	var req dto.MovimientoCajaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.RegistrarMovimiento(c.Request.Context(), usuarioID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ListarMovimientos accepts either ?fecha= or ?desde=&hasta=; with neither
// it lists today.
func (h *CajaHandler) ListarMovimientos(c *gin.Context) {
	desde, hasta, ok := h.rango(c)
	if !ok {
		return
	}
	var (
		resp []dto.MovimientoCajaResponse
		err  error
	)
	if desde.Equal(hasta) {
		resp, err = h.svc.ListarMovimientos(c.Request.Context(), desde)
	} else {
		resp, err = h.svc.ListarMovimientosRango(c.Request.Context(), desde, hasta)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CerrarDia godoc
// @Summary Cierra el dia con el saldo contado
// @Tags caja
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CerrarDiaRequest true "Saldo final"
// @Success 200 {object} dto.CierreCajaResponse
// @Failure 409 {object} apierror.APIError "Dia ya cerrado"
// @Router /v1/caja/cerrar [post]
func (h *CajaHandler) CerrarDia(c *gin.Context) {
	var req dto.CerrarDiaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CerrarDia(c.Request.Context(), usuarioID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CajaHandler) ReabrirDia(c *gin.Context) {
	var req dto.FechaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	fecha := h.svc.Hoy()
	if req.Fecha != "" {
		f, err := timeutil.ParseFecha(req.Fecha)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.NewCampo("fecha", "fecha invalida, se espera AAAA-MM-DD"))
			return
		}
		fecha = f
	}
	resp, err := h.svc.ReabrirDia(c.Request.Context(), fecha)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CajaHandler) Recalcular(c *gin.Context) {
	fecha, ok := paramFecha(c, "fecha")
	if !ok {
		return
	}
	resp, err := h.svc.RecalcularTotales(c.Request.Context(), fecha)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// AutoCerrar runs the stale-day sweep on demand.
func (h *CajaHandler) AutoCerrar(c *gin.Context) {
	n, err := h.svc.AutoCerrarDiasPendientes(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cerrados": n})
}

func (h *CajaHandler) Historial(c *gin.Context) {
	desde, hasta, ok := h.rango(c)
	if !ok {
		return
	}
	resp, err := h.svc.HistorialCierres(c.Request.Context(), desde, hasta)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ── Exports ───────────────────────────────────────────────────────────────────

// ReportePDF godoc
// @Summary Descarga el reporte de cierre en PDF
// @Tags caja
// @Produce application/pdf
// @Security BearerAuth
// @Param fecha path string true "AAAA-MM-DD"
// @Success 200 {file} binary
// @Router /v1/caja/dia/{fecha}/reporte.pdf [get]
func (h *CajaHandler) ReportePDF(c *gin.Context) {
	fecha, ok := paramFecha(c, "fecha")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	cierre, err := h.svc.ObtenerCierre(ctx, fecha)
	if err != nil {
		respondError(c, err)
		return
	}
	movs, err := h.svc.ListarMovimientos(ctx, fecha)
	if err != nil {
		respondError(c, err)
		return
	}
	pdf, err := infra.GenerateCierrePDF(cierre, movs)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="cierre_`+cierre.Fecha+`.pdf"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// MovimientosXLSX exports the movements of ?desde=&hasta= as a spreadsheet.
func (h *CajaHandler) MovimientosXLSX(c *gin.Context) {
	desde, hasta, ok := h.rango(c)
	if !ok {
		return
	}
	movs, err := h.svc.ListarMovimientosRango(c.Request.Context(), desde, hasta)
	if err != nil {
		respondError(c, err)
		return
	}
	xlsx, err := infra.GenerateMovimientosXLSX(movs)
	if err != nil {
		_ = c.Error(err)
		return
	}
	nombre := "movimientos_" + timeutil.FormatFecha(desde) + "_" + timeutil.FormatFecha(hasta) + ".xlsx"
	c.Header("Content-Disposition", `attachment; filename="`+nombre+`"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", xlsx)
}

// rango reads ?fecha= or ?desde=&hasta=, defaulting missing ends to today.
func (h *CajaHandler) rango(c *gin.Context) (desde, hasta time.Time, ok bool) {
	hoy := h.svc.Hoy()
	fecha, ok := queryFecha(c, "fecha")
	if !ok {
		return desde, hasta, false
	}
	if fecha != nil {
		return *fecha, *fecha, true
	}
	d, ok := queryFecha(c, "desde")
	if !ok {
		return desde, hasta, false
	}
	hs, ok := queryFecha(c, "hasta")
	if !ok {
		return desde, hasta, false
	}
	desde, hasta = hoy, hoy
	if hs != nil {
		hasta = *hs
	}
	if d != nil {
		desde = *d
	} else if hs != nil {
		desde = *hs
	}
	return desde, hasta, true
}
