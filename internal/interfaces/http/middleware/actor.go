package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/notaria/backend/internal/domain/custody"
	"github.com/notaria/backend/internal/infrastructure/logger"
	"github.com/notaria/backend/internal/interfaces/http/dto"
)

// Actor identity headers set by the authenticating gateway
const (
	HeaderUserID   = "X-User-ID"
	HeaderUserName = "X-User-Name"
	HeaderUserRole = "X-User-Role"
)

// ActorKey is the gin context key holding the custody.Actor
const ActorKey = "actor"

const maxActorHeaderLength = 200

// RequireActor reads the actor headers and rejects the request with 401 when
// the id is missing or the role is unknown.
func RequireActor() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := custody.Actor{
			ID:   strings.TrimSpace(c.GetHeader(HeaderUserID)),
			Name: strings.TrimSpace(c.GetHeader(HeaderUserName)),
			Role: custody.ParseRole(c.GetHeader(HeaderUserRole)),
		}

		if err := actor.Validate(); err != nil {
			abortUnauthorized(c, "Missing "+HeaderUserID+" header")
			return
		}
		if !actor.Role.IsValid() {
			abortUnauthorized(c, "Unknown role in "+HeaderUserRole+" header")
			return
		}
		if len(actor.ID) > maxActorHeaderLength || len(actor.Name) > maxActorHeaderLength {
			abortUnauthorized(c, "Actor header too long")
			return
		}

		c.Set(ActorKey, actor)
		ctx, _ := logger.WithActor(c.Request.Context(), logger.FromContext(c.Request.Context()), actor.ID, string(actor.Role))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// GetActor returns the actor stored by RequireActor
func GetActor(c *gin.Context) (custody.Actor, bool) {
	v, ok := c.Get(ActorKey)
	if !ok {
		return custody.Actor{}, false
	}
	actor, ok := v.(custody.Actor)
	return actor, ok
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(
		dto.ErrCodeUnauthorized, message, GetRequestID(c),
	))
}
