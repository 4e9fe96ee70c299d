package handler

import (
	"net/http"

	"github.com/Leoramirez777/gestor-prestamista/internal/dto"
	"github.com/Leoramirez777/gestor-prestamista/internal/service"

	"github.com/gin-gonic/gin"
)

type PagosHandler struct{ svc service.PagoService }

func NewPagosHandler(svc service.PagoService) *PagosHandler { return &PagosHandler{svc: svc} }

// Registrar godoc
// @Summary Registra un pago, sus comisiones y los movimientos de caja
// @Tags pagos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.RegistrarPagoRequest true "Pago"
// @Success 201 {object} dto.RegistrarPagoResponse
// @Failure 400 {object} apierror.APIError
// @Failure 404 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError "Caja del dia cerrada"
// @Router /v1/pagos [post]
func (h *PagosHandler) Registrar(c *gin.Context) {
	var req dto.RegistrarPagoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.RegistrarPago(c.Request.Context(), usuarioID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *PagosHandler) Obtener(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ObtenerPago(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Eliminar godoc
// @Summary Elimina un pago y revierte saldo, comisiones y caja
// @Tags pagos
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID del pago"
// @Success 200 {object} dto.PrestamoResponse
// @Failure 400 {object} apierror.APIError
// @Failure 404 {object} apierror.APIError
// @Router /v1/pagos/{id} [delete]
func (h *PagosHandler) Eliminar(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.EliminarPago(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// PreviewComision computes a collector commission without persisting it.
func (h *PagosHandler) PreviewComision(c *gin.Context) {
	var req dto.PreviewComisionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.PreviewComisionCobrador(req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
