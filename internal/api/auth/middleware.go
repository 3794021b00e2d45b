package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"ReelMarket/internal/api/domain/actor"
	"ReelMarket/pkg/logger"

	"github.com/gin-gonic/gin"
)

const actorKey = "actor"

// Middleware rejects requests without a valid bearer token and stores the
// caller in the gin context.
func Middleware(tm *TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		tokenStr, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "missing bearer token", "retryable": false})
			return
		}

		act, err := tm.ParseToken(tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "invalid token", "retryable": false})
			return
		}

		c.Set(actorKey, act)
		ctx := logger.WithAttrs(c.Request.Context(),
			slog.String("actor_id", act.ID.String()),
			slog.String("actor_role", string(act.Role)))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireRole lets only the given roles through. It must run after Middleware.
func RequireRole(roles ...actor.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		act, ok := ActorFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "unauthenticated", "retryable": false})
			return
		}
		for _, r := range roles {
			if act.Is(r) {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "role not allowed", "retryable": false})
	}
}

func ActorFrom(c *gin.Context) (actor.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return actor.Actor{}, false
	}
	act, ok := v.(actor.Actor)
	return act, ok
}

// SetActor is used by tests that bypass token parsing.
func SetActor(c *gin.Context, act actor.Actor) {
	c.Set(actorKey, act)
}
