package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ActorHeader carries the authenticated caller address set by the
// external identity provider in front of this service.
const ActorHeader = "X-Actor-Address"

const actorKey = "actor_address"

// RequireActor rejects requests without a caller identity with 401.
func RequireActor() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := c.GetHeader(ActorHeader)
		if actor == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "missing caller identity",
			})
			return
		}
		c.Set(actorKey, actor)
		c.Next()
	}
}

// Actor returns the caller address extracted by RequireActor.
func Actor(c *gin.Context) string {
	return c.GetString(actorKey)
}
