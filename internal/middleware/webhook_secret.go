package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// WebhookSecret guards inbound callbacks with a shared secret header.
// An empty secret rejects every call.
func WebhookSecret(secret string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		provided := ctx.GetHeader("X-Webhook-Secret")

		if secret == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid webhook secret"})
			return
		}

		ctx.Next()
	}
}
