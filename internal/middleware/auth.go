package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"catalog/internal/models"
)

// UserKey is the gin context key holding the authenticated *models.User.
const UserKey = "user"

// bearerToken extracts the token from "Authorization: Bearer <token>".
func bearerToken(c *gin.Context) (string, error) {
	raw := strings.TrimSpace(c.GetHeader("Authorization"))
	if raw == "" {
		return "", models.Unauthenticated("Not authorized, no token")
	}

	parts := strings.Fields(raw)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", models.Unauthenticated("Not authorized, invalid token format")
	}
	return parts[1], nil
}

// CurrentUser returns the user stored by UserAuth.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	value, ok := c.Get(UserKey)
	if !ok {
		return nil, false
	}
	user, ok := value.(*models.User)
	return user, ok && user != nil
}

func abortUnauthorized(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": models.PublicMessage(err)})
}
