package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/questionbank-api/internal/pkg/logger"
	"github.com/yourusername/questionbank-api/pkg/auth"
)

// Ключи контекста Gin
const (
	ContextKeyUsername = "username"
	ContextKeyIsAdmin  = "is_admin"
)

// AuthMiddleware проверяет токены модераторов
type AuthMiddleware struct {
	jwtService *auth.JWTService
	log        *zap.Logger
}

// NewAuthMiddleware создает middleware авторизации
func NewAuthMiddleware(jwtService *auth.JWTService, log *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{jwtService: jwtService, log: logger.OrNop(log).Named("auth")}
}

// RequireModerator пропускает только запросы с валидным токеном и claim admin=true
func (m *AuthMiddleware) RequireModerator() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required", "error_type": "token_missing"})
			return
		}

		// Проверяем формат заголовка Bearer {token}
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header format must be Bearer {token}", "error_type": "token_format"})
			return
		}

		claims, err := m.jwtService.ParseToken(parts[1])
		if err != nil {
			m.log.Info("token rejected", zap.String("path", c.Request.URL.Path), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token", "error_type": "token_invalid"})
			return
		}

		if !claims.Admin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Moderator rights required", "error_type": "forbidden"})
			return
		}

		c.Set(ContextKeyUsername, claims.Username)
		c.Set(ContextKeyIsAdmin, true)
		c.Next()
	}
}
