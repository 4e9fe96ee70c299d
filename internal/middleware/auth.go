package middleware

import (
	"net/http"
	"strings"

	"github.com/Leoramirez777/gestor-prestamista/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	ClaimsKey = "claims"

	// Values of the "typ" claim. Refresh tokens are only accepted by the
	// refresh endpoint.
	TokenAccess  = "access"
	TokenRefresh = "refresh"
)

// JWTClaims are the custom claims embedded in every token the API signs.
// EmpleadoID is set for seller and collector logins, which may only operate
// their own register.
type JWTClaims struct {
	UserID     string  `json:"user_id"`
	Username   string  `json:"username"`
	Rol        string  `json:"rol"`
	EmpleadoID *string `json:"empleado_id,omitempty"`
	Tipo       string  `json:"typ,omitempty"`
	jwt.RegisteredClaims
}

// ParseToken verifies an HS256 token signed with secret and returns its claims.
func ParseToken(raw, secret string) (*JWTClaims, error) {
	claims := &JWTClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// JWTAuth requires a valid access token in the Authorization header.
func JWTAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("Autenticacion requerida"))
			return
		}

		claims, err := ParseToken(raw, secret)
		if err != nil || claims.Tipo == TokenRefresh {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("Token invalido o expirado"))
			return
		}

		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

// RequireRole rejects requests whose JWT role is not in the allowed list.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		if claims := GetClaims(c); claims == nil || !allowed[claims.Rol] {
			c.AbortWithStatusJSON(http.StatusForbidden, apierror.New("Permisos insuficientes"))
			return
		}
		c.Next()
	}
}

// GetClaims returns the claims JWTAuth stored, or nil on an unauthenticated route.
func GetClaims(c *gin.Context) *JWTClaims {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*JWTClaims)
	return claims
}

// UsuarioID parses the authenticated user's ID; the zero UUID on a bad claim.
func (c *JWTClaims) UsuarioID() uuid.UUID {
	id, _ := uuid.Parse(c.UserID)
	return id
}

// Empleado returns the employee the login is bound to, if any.
func (c *JWTClaims) Empleado() (uuid.UUID, bool) {
	if c.EmpleadoID == nil {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(*c.EmpleadoID)
	return id, err == nil
}
