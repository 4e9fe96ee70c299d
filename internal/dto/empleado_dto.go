package dto

import "github.com/shopspring/decimal"

type CrearEmpleadoRequest struct {
	Nombre             string          `json:"nombre"              validate:"required,min=2,max=100"`
	Rol                string          `json:"rol"                 validate:"required,oneof=vendedor cobrador"`
	PorcentajeComision decimal.Decimal `json:"porcentaje_comision" validate:"min=0,max=100"`
	Telefono           *string         `json:"telefono"            validate:"omitempty,max=30"`
}

type EmpleadoResponse struct {
	ID                 string          `json:"id"`
	Nombre             string          `json:"nombre"`
	Rol                string          `json:"rol"`
	PorcentajeComision decimal.Decimal `json:"porcentaje_comision"`
	Telefono           *string         `json:"telefono"`
	Activo             bool            `json:"activo"`
}
