package middleware

import (
	"net/http"
	"strings"

	"github.com/farellandr/ticketmart/internal/helpers"
	"github.com/farellandr/ticketmart/internal/models"
	"github.com/farellandr/ticketmart/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	ContextKeyUserID = "user_id"
	ContextKeyRole   = "role"
)

type TokenParser interface {
	ParseToken(token string) (*service.Claims, error)
}

// JWTAuthMiddleware requires a valid "Authorization: Bearer <token>" header
// and stores the caller's id and role on the context.
func JWTAuthMiddleware(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			helpers.RespondWithError(c, http.StatusUnauthorized, "Not authorized to access this route")
			return
		}

		claims, err := parser.ParseToken(strings.TrimSpace(token))
		if err != nil {
			helpers.RespondWithError(c, http.StatusUnauthorized, "Not authorized to access this route")
			return
		}

		c.Set(ContextKeyUserID, claims.UserID)
		c.Set(ContextKeyRole, claims.Role)
		c.Next()
	}
}

// Authorize lets through only callers whose role is one of roles. It must
// run after JWTAuthMiddleware.
func Authorize(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := GetActor(c)
		if !ok {
			helpers.RespondWithError(c, http.StatusUnauthorized, "Not authorized to access this route")
			return
		}
		for _, role := range roles {
			if actor.Role == role {
				c.Next()
				return
			}
		}
		helpers.RespondWithError(c, http.StatusForbidden, "User role "+string(actor.Role)+" is not authorized to access this route")
	}
}

func GetActor(c *gin.Context) (service.Actor, bool) {
	userID, ok := c.Get(ContextKeyUserID)
	if !ok {
		return service.Actor{}, false
	}
	id, ok := userID.(uuid.UUID)
	if !ok {
		return service.Actor{}, false
	}
	role, _ := c.Get(ContextKeyRole)
	r, _ := role.(models.Role)
	return service.Actor{UserID: id, Role: r}, true
}
