package handler

import (
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"time"

	"github.com/Leoramirez777/gestor-prestamista/internal/apierror"
	"github.com/Leoramirez777/gestor-prestamista/internal/middleware"
	"github.com/Leoramirez777/gestor-prestamista/internal/service"
	"github.com/Leoramirez777/gestor-prestamista/internal/timeutil"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails;
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("JSON invalido: "+err.Error()))
		return false
	}
	return validar(c, req)
}

// bindQuery is bindAndValidate for query strings.
func bindQuery(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Parametros invalidos: "+err.Error()))
		return false
	}
	return validar(c, req)
}

func validar(c *gin.Context, req interface{}) bool {
	if err := validate.Struct(req); err != nil {
		var ves validator.ValidationErrors
		if !errors.As(err, &ves) {
			c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
			return false
		}
		fields := make(map[string]string)
		for _, fe := range ves {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// respondError maps domain errors to status codes. Anything unrecognized is
// handed to the ErrorHandler middleware as a 500.
func respondError(c *gin.Context, err error) {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		if ve.Campo != "" {
			c.JSON(http.StatusBadRequest, apierror.NewCampo(ve.Campo, ve.Mensaje))
			return
		}
		c.JSON(http.StatusBadRequest, apierror.New(ve.Mensaje))
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
	case errors.Is(err, service.ErrAlreadyClosed):
		c.JSON(http.StatusConflict, apierror.New(err.Error()))
	default:
		_ = c.Error(err)
	}
}

func paramUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(name+" invalido"))
		return uuid.Nil, false
	}
	return id, true
}

func paramFecha(c *gin.Context, name string) (time.Time, bool) {
	f, err := timeutil.ParseFecha(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.NewCampo(name, "fecha invalida, se espera AAAA-MM-DD"))
		return time.Time{}, false
	}
	return f, true
}

// queryFecha parses an optional YYYY-MM-DD query parameter.
func queryFecha(c *gin.Context, name string) (*time.Time, bool) {
	s := c.Query(name)
	if s == "" {
		return nil, true
	}
	f, err := timeutil.ParseFecha(s)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.NewCampo(name, "fecha invalida, se espera AAAA-MM-DD"))
		return nil, false
	}
	return &f, true
}

func queryUUID(c *gin.Context, name string) (*uuid.UUID, bool) {
	s := c.Query(name)
	if s == "" {
		return nil, true
	}
	id, err := uuid.Parse(s)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(name+" invalido"))
		return nil, false
	}
	return &id, true
}

func queryInt(c *gin.Context, name string, def int) (int, bool) {
	s := c.Query(name)
	if s == "" {
		return def, true
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(name+" debe ser un entero"))
		return 0, false
	}
	return n, true
}

func usuarioID(c *gin.Context) uuid.UUID {
	return middleware.GetClaims(c).UsuarioID()
}

// empleadoDestino resolves which employee register a request targets.
// Employee logins are pinned to their own register; back-office roles may
// pick one with ?empleado_id= or the path.
func empleadoDestino(c *gin.Context, solicitado *uuid.UUID) (uuid.UUID, bool) {
	claims := middleware.GetClaims(c)
	if propio, ok := claims.Empleado(); ok && !esBackOffice(claims.Rol) {
		if solicitado != nil && *solicitado != propio {
			c.JSON(http.StatusForbidden, apierror.New("Solo puede operar su propia caja"))
			return uuid.Nil, false
		}
		return propio, true
	}
	if solicitado == nil {
		c.JSON(http.StatusBadRequest, apierror.NewCampo("empleado_id", "requerido"))
		return uuid.Nil, false
	}
	return *solicitado, true
}

func esBackOffice(rol string) bool {
	return rol == RolAdministrador || rol == RolSupervisor
}

// Roles carried in the JWT.
const (
	RolAdministrador = "administrador"
	RolSupervisor    = "supervisor"
	RolVendedor      = "vendedor"
	RolCobrador      = "cobrador"
)

func rangoOpcional(c *gin.Context) (desde, hasta *time.Time, ok bool) {
	if desde, ok = queryFecha(c, "desde"); !ok {
		return nil, nil, false
	}
	if hasta, ok = queryFecha(c, "hasta"); !ok {
		return nil, nil, false
	}
	return desde, hasta, true
}
