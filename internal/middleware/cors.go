package middleware

import (
	"github.com/gin-gonic/gin"
)

// CORS allows any origin in development. In production only the listed
// origins are echoed back.
func CORS(env string, origenes ...string) gin.HandlerFunc {
	permitidos := make(map[string]bool, len(origenes))
	for _, o := range origenes {
		permitidos[o] = true
	}
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		switch {
		case env != "production":
			c.Header("Access-Control-Allow-Origin", "*")
		case permitidos[origin]:
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
		}
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, "+RequestIDHeader)
		c.Header("Access-Control-Expose-Headers", RequestIDHeader+", Content-Disposition")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
