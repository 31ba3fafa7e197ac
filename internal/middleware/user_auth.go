package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"catalog/internal/models"
)

type SessionAuthenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// UserAuth resolves the bearer token to a user on every request and stores it
// under UserKey.
func UserAuth(sessions SessionAuthenticator, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c)
		if err != nil {
			log.Info("[AUTH] rejected", zap.String("path", c.FullPath()), zap.Error(err))
			abortUnauthorized(c, err)
			return
		}

		user, err := sessions.Authenticate(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, models.ErrAuthentication) {
				log.Info("[AUTH] token validation failed", zap.Error(err))
				abortUnauthorized(c, err)
				return
			}
			log.Error("[AUTH] session lookup failed", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "message": models.PublicMessage(err)})
			return
		}

		c.Set(UserKey, user)
		c.Next()
	}
}
