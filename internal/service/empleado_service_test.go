package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/Leoramirez777/gestor-prestamista/internal/dto"
	"github.com/Leoramirez777/gestor-prestamista/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmpleado_CrearYListar(t *testing.T) {
	repo := &stubEmpleadoRepo{}
	svc := service.NewEmpleadoService(repo)
	ctx := context.Background()

	v, err := svc.Crear(ctx, dto.CrearEmpleadoRequest{Nombre: "Vera", Rol: "vendedor", PorcentajeComision: dec("10.555")})
	require.NoError(t, err)
	assert.Equal(t, "10.56", v.PorcentajeComision.StringFixed(2))
	assert.True(t, v.Activo)
	_, err = svc.Crear(ctx, dto.CrearEmpleadoRequest{Nombre: "Coco", Rol: "cobrador", PorcentajeComision: dec("5")})
	require.NoError(t, err)

	todos, err := svc.Listar(ctx, "")
	require.NoError(t, err)
	assert.Len(t, todos, 2)
	cobradores, err := svc.Listar(ctx, "cobrador")
	require.NoError(t, err)
	require.Len(t, cobradores, 1)
	assert.Equal(t, "Coco", cobradores[0].Nombre)

	got, err := svc.Obtener(ctx, uuid.MustParse(v.ID))
	require.NoError(t, err)
	assert.Equal(t, "Vera", got.Nombre)
}

func TestEmpleado_Rechazos(t *testing.T) {
	svc := service.NewEmpleadoService(&stubEmpleadoRepo{})
	ctx := context.Background()

	_, err := svc.Crear(ctx, dto.CrearEmpleadoRequest{Nombre: "Ana", Rol: "gerente"})
	assert.True(t, service.IsValidation(err))

	_, err = svc.Crear(ctx, dto.CrearEmpleadoRequest{Nombre: "Ana", Rol: "cobrador", PorcentajeComision: dec("120")})
	assert.True(t, service.IsValidation(err))

	_, err = svc.Listar(ctx, "gerente")
	assert.True(t, service.IsValidation(err))

	_, err = svc.Obtener(ctx, uuid.New())
	assert.True(t, errors.Is(err, service.ErrNotFound))
}
