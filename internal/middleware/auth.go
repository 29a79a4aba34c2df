package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"yardcheck/internal/config"
	"yardcheck/pkg/utils"
)

func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			// Browsers cannot set headers on websocket upgrades, so the
			// live endpoint passes the token as a query parameter
			token = c.Query("token")
		}
		if token == "" {
			utils.ErrorResponse(c, http.StatusUnauthorized, "Authorization required")
			c.Abort()
			return
		}

		claims, err := utils.ValidateToken(token, cfg.JWT.Secret)
		if err != nil {
			utils.ErrorResponse(c, http.StatusUnauthorized, "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set("inspectorID", claims.UserID)
		c.Set("inspectorName", claims.Name)
		c.Set("email", claims.Email)
		c.Set("role", claims.Role)

		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}
