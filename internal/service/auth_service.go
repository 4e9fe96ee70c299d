package service

import (
	"context"
	"errors"
	"time"

	"github.com/Leoramirez777/gestor-prestamista/internal/config"
	"github.com/Leoramirez777/gestor-prestamista/internal/dto"
	"github.com/Leoramirez777/gestor-prestamista/internal/model"
	"github.com/Leoramirez777/gestor-prestamista/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// ErrCredenciales is returned for any login or refresh failure so callers
// cannot tell a wrong password from an unknown user.
var ErrCredenciales = errors.New("credenciales invalidas")

const bcryptCost = 12

// Values of the "typ" claim; JWTAuth refuses refresh tokens as credentials.
const (
	tokenAccess  = "access"
	tokenRefresh = "refresh"
)

type AuthService interface {
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.LoginResponse, error)
	CrearUsuario(ctx context.Context, req dto.CrearUsuarioRequest) (*dto.UsuarioResponse, error)
	ListarUsuarios(ctx context.Context, incluirInactivos bool) ([]dto.UsuarioResponse, error)
	DesactivarUsuario(ctx context.Context, id uuid.UUID) error
	ReactivarUsuario(ctx context.Context, id uuid.UUID) error
}

type authService struct {
	repo      repository.UsuarioRepository
	empleados repository.EmpleadoRepository
	cfg       *config.Config
}

func NewAuthService(repo repository.UsuarioRepository, empleados repository.EmpleadoRepository, cfg *config.Config) AuthService {
	return &authService{repo: repo, empleados: empleados, cfg: cfg}
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.repo.FindByUsername(ctx, req.Username)
	if err != nil {
		return nil, ErrCredenciales
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrCredenciales
	}
	return s.tokens(user)
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*dto.LoginResponse, error) {
	token, err := jwt.Parse(refreshToken, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("refresh token invalido o expirado")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || claims["typ"] != tokenRefresh {
		return nil, errors.New("refresh token invalido o expirado")
	}
	userIDStr, _ := claims["user_id"].(string)
	uid, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil, errors.New("token mal formado")
	}

	user, err := s.repo.FindByID(ctx, uid)
	if err != nil || !user.Activo {
		return nil, errors.New("usuario no encontrado o inactivo")
	}
	return s.tokens(user)
}

func (s *authService) CrearUsuario(ctx context.Context, req dto.CrearUsuarioRequest) (*dto.UsuarioResponse, error) {
	empleadoID, err := parseUUIDPtr("empleado_id", req.EmpleadoID)
	if err != nil {
		return nil, err
	}
	if empleadoID != nil {
		if _, err := s.empleados.FindByID(ctx, *empleadoID); err != nil {
			return nil, traducirNoEncontrado(err, "empleado")
		}
	}
	if req.Rol == string(model.RolVendedor) || req.Rol == string(model.RolCobrador) {
		if empleadoID == nil {
			return nil, validacion("empleado_id", "requerido para el rol %s", req.Rol)
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, err
	}
	user := &model.Usuario{
		Username:     req.Username,
		Nombre:       req.Nombre,
		Email:        req.Email,
		PasswordHash: string(hash),
		Rol:          req.Rol,
		EmpleadoID:   empleadoID,
		Activo:       true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	resp := usuarioToDTO(user)
	return &resp, nil
}

func (s *authService) ListarUsuarios(ctx context.Context, incluirInactivos bool) ([]dto.UsuarioResponse, error) {
	users, err := s.repo.List(ctx, incluirInactivos)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.UsuarioResponse, len(users))
	for i := range users {
		resp[i] = usuarioToDTO(&users[i])
	}
	return resp, nil
}

func (s *authService) DesactivarUsuario(ctx context.Context, id uuid.UUID) error {
	return traducirNoEncontrado(s.repo.SetActivo(ctx, id, false), "usuario")
}

func (s *authService) ReactivarUsuario(ctx context.Context, id uuid.UUID) error {
	return traducirNoEncontrado(s.repo.SetActivo(ctx, id, true), "usuario")
}

func (s *authService) tokens(user *model.Usuario) (*dto.LoginResponse, error) {
	accessToken, err := s.generateToken(user, tokenAccess, time.Duration(s.cfg.JWTExpirationHours)*time.Hour)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.generateToken(user, tokenRefresh, time.Duration(s.cfg.JWTRefreshHours)*time.Hour)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		ExpiresIn:    s.cfg.JWTExpirationHours * 3600,
		User:         usuarioToDTO(user),
	}, nil
}

func (s *authService) generateToken(user *model.Usuario, tipo string, duration time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"user_id":  user.ID.String(),
		"username": user.Username,
		"rol":      user.Rol,
		"typ":      tipo,
		"exp":      time.Now().Add(duration).Unix(),
		"iat":      time.Now().Unix(),
	}
	if user.EmpleadoID != nil {
		claims["empleado_id"] = user.EmpleadoID.String()
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

func usuarioToDTO(u *model.Usuario) dto.UsuarioResponse {
	return dto.UsuarioResponse{
		ID:         u.ID.String(),
		Username:   u.Username,
		Nombre:     u.Nombre,
		Email:      u.Email,
		Rol:        u.Rol,
		EmpleadoID: uuidPtrString(u.EmpleadoID),
		Activo:     u.Activo,
	}
}
