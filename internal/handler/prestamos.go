package handler

import (
	"net/http"

	"github.com/Leoramirez777/gestor-prestamista/internal/dto"
	"github.com/Leoramirez777/gestor-prestamista/internal/service"

	"github.com/gin-gonic/gin"
)

type PrestamosHandler struct {
	svc   service.PrestamoService
	pagos service.PagoService
}

func NewPrestamosHandler(svc service.PrestamoService, pagos service.PagoService) *PrestamosHandler {
	return &PrestamosHandler{svc: svc, pagos: pagos}
}

// Crear godoc
// @Summary Crea un prestamo y registra el desembolso en la caja del dia
// @Tags prestamos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CrearPrestamoRequest true "Datos del prestamo"
// @Success 201 {object} dto.PrestamoResponse
// @Failure 400 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /v1/prestamos [post]
func (h *PrestamosHandler) Crear(c *gin.Context) {
	var req dto.CrearPrestamoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Crear(c.Request.Context(), usuarioID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Listar godoc
// @Summary Lista prestamos con filtros opcionales
// @Tags prestamos
// @Produce json
// @Security BearerAuth
// @Param estado query string false "activo|pagado|vencido|impago|refinanciado"
// @Param cliente_id query string false "Cliente"
// @Param vendedor_id query string false "Vendedor"
// @Param desde query string false "AAAA-MM-DD"
// @Param hasta query string false "AAAA-MM-DD"
// @Success 200 {array} dto.PrestamoResponse
// @Router /v1/prestamos [get]
func (h *PrestamosHandler) Listar(c *gin.Context) {
	var params dto.PrestamoFiltroParams
	if !bindQuery(c, &params) {
		return
	}
	resp, err := h.svc.Listar(c.Request.Context(), params)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PrestamosHandler) Obtener(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Obtener(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Amortizacion returns the installment schedule with paid and overdue state.
func (h *PrestamosHandler) Amortizacion(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Amortizacion(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Refinanciar godoc
// @Summary Refinancia el saldo pendiente en un prestamo nuevo
// @Tags prestamos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID del prestamo"
// @Param body body dto.RefinanciarRequest true "Condiciones nuevas"
// @Success 201 {object} dto.PrestamoResponse
// @Failure 400 {object} apierror.APIError
// @Failure 404 {object} apierror.APIError
// @Router /v1/prestamos/{id}/refinanciar [post]
func (h *PrestamosHandler) Refinanciar(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req dto.RefinanciarRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Refinanciar(c.Request.Context(), usuarioID(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *PrestamosHandler) ListarPagos(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.pagos.ListarPagosPorPrestamo(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
