package handler

import (
	"net/http"

	"github.com/Leoramirez777/gestor-prestamista/internal/dto"
	"github.com/Leoramirez777/gestor-prestamista/internal/service"

	"github.com/gin-gonic/gin"
)

type EmpleadosHandler struct{ svc service.EmpleadoService }

func NewEmpleadosHandler(svc service.EmpleadoService) *EmpleadosHandler {
	return &EmpleadosHandler{svc: svc}
}

func (h *EmpleadosHandler) Crear(c *gin.Context) {
	var req dto.CrearEmpleadoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Crear(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Listar accepts ?rol=vendedor|cobrador.
func (h *EmpleadosHandler) Listar(c *gin.Context) {
	resp, err := h.svc.Listar(c.Request.Context(), c.Query("rol"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *EmpleadosHandler) Obtener(c *gin.Context) {
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
