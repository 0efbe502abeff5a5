package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/delegationapp/delegate/internal/service"
	appErrors "github.com/delegationapp/delegate/pkg/errors"
	"github.com/delegationapp/delegate/pkg/response"
)

// RequireSession rejects requests when no usable auth token is stored. The
// engine treats a missing token as a hard precondition failure for anything
// that talks to the backend on the user's behalf.
func RequireSession(session service.SessionProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := session.Token(); !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrNoSession, ""))
			c.Abort()
			return
		}
		c.Next()
	}
}
