package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/Leoramirez777/gestor-prestamista/internal/config"
	"github.com/Leoramirez777/gestor-prestamista/internal/dto"
	"github.com/Leoramirez777/gestor-prestamista/internal/model"
	"github.com/Leoramirez777/gestor-prestamista/internal/service"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secretoPrueba = "secreto-de-prueba"

func authSvc() (service.AuthService, *stubUsuarioRepo, *stubEmpleadoRepo) {
	usuarios := &stubUsuarioRepo{}
	empleados := &stubEmpleadoRepo{}
	cfg := &config.Config{JWTSecret: secretoPrueba, JWTExpirationHours: 8, JWTRefreshHours: 24}
	return service.NewAuthService(usuarios, empleados, cfg), usuarios, empleados
}

func TestAuth_LoginYRefresh(t *testing.T) {
	svc, _, _ := authSvc()
	ctx := context.Background()
	u, err := svc.CrearUsuario(ctx, dto.CrearUsuarioRequest{
		Username: "admin", Nombre: "Admin", Password: "clave-segura", Rol: "administrador",
	})
	require.NoError(t, err)
	assert.True(t, u.Activo)

	resp, err := svc.Login(ctx, dto.LoginRequest{Username: "admin", Password: "clave-segura"})
	require.NoError(t, err)
	assert.Equal(t, "bearer", resp.TokenType)
	assert.Equal(t, 8*3600, resp.ExpiresIn)
	assert.Equal(t, "administrador", resp.User.Rol)

	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(resp.AccessToken, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(secretoPrueba), nil
	})
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims["user_id"])
	assert.NotContains(t, claims, "empleado_id")
	assert.Equal(t, "access", claims["typ"])

	refreshed, err := svc.Refresh(ctx, resp.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)

	_, err = svc.Refresh(ctx, resp.AccessToken)
	assert.Error(t, err, "an access token cannot be traded for a new pair")
}

func TestAuth_CredencialesInvalidas(t *testing.T) {
	svc, _, _ := authSvc()
	ctx := context.Background()
	_, err := svc.CrearUsuario(ctx, dto.CrearUsuarioRequest{
		Username: "admin", Nombre: "Admin", Password: "clave-segura", Rol: "administrador",
	})
	require.NoError(t, err)

	_, err = svc.Login(ctx, dto.LoginRequest{Username: "admin", Password: "otra"})
	assert.True(t, errors.Is(err, service.ErrCredenciales))

	_, err = svc.Login(ctx, dto.LoginRequest{Username: "nadie", Password: "clave-segura"})
	assert.True(t, errors.Is(err, service.ErrCredenciales))

	_, err = svc.Refresh(ctx, "no-es-un-token")
	assert.Error(t, err)
}

func TestAuth_UsuarioDeEmpleadoLlevaClaim(t *testing.T) {
	svc, _, empleados := authSvc()
	ctx := context.Background()
	c := empleados.alta("Coco", model.RolCobrador, "5")
	id := c.ID.String()

	_, err := svc.CrearUsuario(ctx, dto.CrearUsuarioRequest{
		Username: "coco", Nombre: "Coco", Password: "clave-segura", Rol: "cobrador", EmpleadoID: &id,
	})
	require.NoError(t, err)

	resp, err := svc.Login(ctx, dto.LoginRequest{Username: "coco", Password: "clave-segura"})
	require.NoError(t, err)
	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(resp.AccessToken, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(secretoPrueba), nil
	})
	require.NoError(t, err)
	assert.Equal(t, id, claims["empleado_id"])
}

func TestAuth_CrearUsuarioRechazos(t *testing.T) {
	svc, _, _ := authSvc()
	ctx := context.Background()

	_, err := svc.CrearUsuario(ctx, dto.CrearUsuarioRequest{
		Username: "coco", Nombre: "Coco", Password: "clave-segura", Rol: "cobrador",
	})
	assert.True(t, service.IsValidation(err), "cobrador sin empleado")

	desconocido := uuid.NewString()
	_, err = svc.CrearUsuario(ctx, dto.CrearUsuarioRequest{
		Username: "coco", Nombre: "Coco", Password: "clave-segura", Rol: "cobrador", EmpleadoID: &desconocido,
	})
	assert.True(t, errors.Is(err, service.ErrNotFound))
}

func TestAuth_DesactivarBloqueaLogin(t *testing.T) {
	svc, _, _ := authSvc()
	ctx := context.Background()
	u, err := svc.CrearUsuario(ctx, dto.CrearUsuarioRequest{
		Username: "sup", Nombre: "Super", Password: "clave-segura", Rol: "supervisor",
	})
	require.NoError(t, err)
	login, err := svc.Login(ctx, dto.LoginRequest{Username: "sup", Password: "clave-segura"})
	require.NoError(t, err)

	require.NoError(t, svc.DesactivarUsuario(ctx, uuid.MustParse(u.ID)))
	_, err = svc.Login(ctx, dto.LoginRequest{Username: "sup", Password: "clave-segura"})
	assert.True(t, errors.Is(err, service.ErrCredenciales))
	_, err = svc.Refresh(ctx, login.RefreshToken)
	assert.Error(t, err)

	activos, err := svc.ListarUsuarios(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, activos)
	todos, err := svc.ListarUsuarios(ctx, true)
	require.NoError(t, err)
	assert.Len(t, todos, 1)

	require.NoError(t, svc.ReactivarUsuario(ctx, uuid.MustParse(u.ID)))
	_, err = svc.Login(ctx, dto.LoginRequest{Username: "sup", Password: "clave-segura"})
	assert.NoError(t, err)

	assert.True(t, errors.Is(svc.DesactivarUsuario(ctx, uuid.New()), service.ErrNotFound))
}
