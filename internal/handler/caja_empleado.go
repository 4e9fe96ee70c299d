package handler

import (
	"net/http"

	"github.com/Leoramirez777/gestor-prestamista/internal/dto"
	"github.com/Leoramirez777/gestor-prestamista/internal/service"
	"github.com/Leoramirez777/gestor-prestamista/internal/timeutil"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CajaEmpleadoHandler serves the per-employee registers. Sellers and
// collectors always act on their own register; administrators and
// supervisors select one with ?empleado_id=.
type CajaEmpleadoHandler struct {
	svc  service.CajaEmpleadoService
	caja service.CajaService
}

func NewCajaEmpleadoHandler(svc service.CajaEmpleadoService, caja service.CajaService) *CajaEmpleadoHandler {
	return &CajaEmpleadoHandler{svc: svc, caja: caja}
}

func (h *CajaEmpleadoHandler) empleado(c *gin.Context) (uuid.UUID, bool) {
	solicitado, ok := queryUUID(c, "empleado_id")
	if !ok {
		return uuid.Nil, false
	}
	return empleadoDestino(c, solicitado)
}

// Resumen godoc
// @Summary Resumen de la caja de un empleado para una fecha
// @Tags caja-empleado
// @Produce json
// @Security BearerAuth
// @Param fecha query string false "AAAA-MM-DD, por defecto hoy"
// @Param empleado_id query string false "Requerido para administrador y supervisor"
// @Success 200 {object} dto.ResumenCajaEmpleadoResponse
// @Router /v1/caja-empleado/resumen [get]
func (h *CajaEmpleadoHandler) Resumen(c *gin.Context) {
	empID, ok := h.empleado(c)
	if !ok {
		return
	}
	fecha, ok := queryFecha(c, "fecha")
	if !ok {
		return
	}
	dia := h.caja.Hoy()
	if fecha != nil {
		dia = *fecha
	}
	resp, err := h.svc.ObtenerResumen(c.Request.Context(), dia, empID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RegistrarMovimiento godoc
// @Summary Registra un movimiento en la caja del empleado
// @Description Un deposito_caja_central tambien se refleja como ingreso en la caja central.
// @Tags caja-empleado
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.MovimientoEmpleadoRequest true "Movimiento"
// @Success 201 {object} dto.MovimientoEmpleadoResponse
// @Failure 409 {object} apierror.APIError "Dia cerrado"
// @Router /v1/caja-empleado/movimientos [post]
func (h *CajaEmpleadoHandler) RegistrarMovimiento(c *gin.Context) {
	empID, ok := h.empleado(c)
	if !ok {
		return
	}
	var req dto.MovimientoEmpleadoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	uid := usuarioID(c)
	resp, err := h.svc.RegistrarMovimiento(c.Request.Context(), &uid, empID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *CajaEmpleadoHandler) ListarMovimientos(c *gin.Context) {
	empID, ok := h.empleado(c)
	if !ok {
		return
	}
	fecha, ok := queryFecha(c, "fecha")
	if !ok {
		return
	}
	dia := h.caja.Hoy()
	if fecha != nil {
		dia = *fecha
	}
	resp, err := h.svc.ListarMovimientos(c.Request.Context(), dia, empID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CajaEmpleadoHandler) CerrarDia(c *gin.Context) {
	empID, ok := h.empleado(c)
	if !ok {
		return
	}
	var req dto.CerrarDiaEmpleadoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CerrarDia(c.Request.Context(), empID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ReabrirDia is restricted to back-office roles at the router.
func (h *CajaEmpleadoHandler) ReabrirDia(c *gin.Context) {
	empID, ok := h.empleado(c)
	if !ok {
		return
	}
	var req dto.FechaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	dia := h.caja.Hoy()
	if req.Fecha != "" {
		f, err := timeutil.ParseFecha(req.Fecha)
		if err != nil {
			respondError(c, &service.ValidationError{Campo: "fecha", Mensaje: "fecha invalida, se espera AAAA-MM-DD"})
			return
		}
		dia = f
	}
	resp, err := h.svc.ReabrirDia(c.Request.Context(), dia, empID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
