package handler

import (
	"net/http"

	"github.com/Leoramirez777/gestor-prestamista/internal/service"

	"github.com/gin-gonic/gin"
)

type ComisionesHandler struct{ svc service.ComisionService }

func NewComisionesHandler(svc service.ComisionService) *ComisionesHandler {
	return &ComisionesHandler{svc: svc}
}

// ResumenVendedor accepts ?vendedor_id=&desde=&hasta=.
func (h *ComisionesHandler) ResumenVendedor(c *gin.Context) {
	id, ok := queryUUID(c, "vendedor_id")
	if !ok {
		return
	}
	desde, hasta, ok := rangoOpcional(c)
	if !ok {
		return
	}
	resp, err := h.svc.ResumenVendedor(c.Request.Context(), id, desde, hasta)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ComisionesHandler) DetalleVendedor(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.DetalleVendedor(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ComisionesHandler) ResumenCobrador(c *gin.Context) {
	id, ok := queryUUID(c, "cobrador_id")
	if !ok {
		return
	}
	desde, hasta, ok := rangoOpcional(c)
	if !ok {
		return
	}
	resp, err := h.svc.ResumenCobrador(c.Request.Context(), id, desde, hasta)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ComisionesHandler) DelDia(c *gin.Context) {
	fecha, ok := queryFecha(c, "fecha")
	if !ok {
		return
	}
	resp, err := h.svc.ComisionesDelDia(c.Request.Context(), fecha)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ComisionesHandler) Ranking(c *gin.Context) {
	desde, hasta, ok := rangoOpcional(c)
	if !ok {
		return
	}
	resp, err := h.svc.RankingEmpleados(c.Request.Context(), desde, hasta)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
