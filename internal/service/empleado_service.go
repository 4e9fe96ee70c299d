package service

import (
	"context"

	"github.com/Leoramirez777/gestor-prestamista/internal/dto"
	"github.com/Leoramirez777/gestor-prestamista/internal/model"
	"github.com/Leoramirez777/gestor-prestamista/internal/repository"

	"github.com/google/uuid"
)

type EmpleadoService interface {
	Crear(ctx context.Context, req dto.CrearEmpleadoRequest) (*dto.EmpleadoResponse, error)
	Obtener(ctx context.Context, id uuid.UUID) (*dto.EmpleadoResponse, error)
	Listar(ctx context.Context, rol string) ([]dto.EmpleadoResponse, error)
}

type empleadoService struct {
	repo repository.EmpleadoRepository
}

func NewEmpleadoService(repo repository.EmpleadoRepository) EmpleadoService {
	return &empleadoService{repo: repo}
}

func (s *empleadoService) Crear(ctx context.Context, req dto.CrearEmpleadoRequest) (*dto.EmpleadoResponse, error) {
	rol := model.RolEmpleado(req.Rol)
	if rol != model.RolVendedor && rol != model.RolCobrador {
		return nil, validacion("rol", "debe ser vendedor o cobrador")
	}
	if err := validarPorcentaje("porcentaje_comision", req.PorcentajeComision); err != nil {
		return nil, err
	}
	e := &model.Empleado{
		Nombre:             req.Nombre,
		Rol:                rol,
		PorcentajeComision: req.PorcentajeComision.Round(2),
		Telefono:           req.Telefono,
		Activo:             true,
	}
	if err := s.repo.Create(ctx, e); err != nil {
		return nil, err
	}
	resp := empleadoToDTO(e)
	return &resp, nil
}

func (s *empleadoService) Obtener(ctx context.Context, id uuid.UUID) (*dto.EmpleadoResponse, error) {
	e, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, traducirNoEncontrado(err, "empleado")
	}
	resp := empleadoToDTO(e)
	return &resp, nil
}

func (s *empleadoService) Listar(ctx context.Context, rol string) ([]dto.EmpleadoResponse, error) {
	if rol != "" && rol != string(model.RolVendedor) && rol != string(model.RolCobrador) {
		return nil, validacion("rol", "debe ser vendedor o cobrador")
	}
	empleados, err := s.repo.List(ctx, model.RolEmpleado(rol))
	if err != nil {
		return nil, err
	}
	out := make([]dto.EmpleadoResponse, len(empleados))
	for i := range empleados {
		out[i] = empleadoToDTO(&empleados[i])
	}
	return out, nil
}
