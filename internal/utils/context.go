package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/powerbrief-dev/powerbrief/internal/middleware"
	"github.com/powerbrief-dev/powerbrief/internal/types"
)

// CurrentUser returns the session user the auth middleware stored on the
// request. Public routes never carry one.
func CurrentUser(ctx *gin.Context) (middleware.AuthenticatedUser, error) {
	value, exists := ctx.Get(types.ContextUserKey)
	if !exists {
		return middleware.AuthenticatedUser{}, ErrNotAuthenticated
	}

	user, ok := value.(middleware.AuthenticatedUser)
	if !ok || user.ID == "" {
		return middleware.AuthenticatedUser{}, ErrNotAuthenticated
	}

	return user, nil
}

// RequireUser answers 401 when the request has no session user.
func RequireUser(ctx *gin.Context) (middleware.AuthenticatedUser, bool) {
	user, err := CurrentUser(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return user, false
	}
	return user, true
}
