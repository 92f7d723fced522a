package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/powerbrief-dev/powerbrief/internal/services"
	"github.com/powerbrief-dev/powerbrief/internal/utils"
	"gorm.io/gorm"
)

// serverError logs err and answers 500 with message.
func serverError(ctx *gin.Context, message string, err error) {
	deps.Log.Error(message, "path", ctx.FullPath(), "error", err)
	ctx.JSON(http.StatusInternalServerError, gin.H{"error": message})
}

// upstreamError answers 503 for a missing integration and 502 for vendor failures.
func upstreamError(ctx *gin.Context, message string, err error) {
	if errors.Is(err, services.ErrNotConfigured) {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": message + ": integration is not configured"})
		return
	}

	deps.Log.Warn(message, "path", ctx.FullPath(), "error", err)
	ctx.JSON(http.StatusBadGateway, gin.H{"error": message + ": " + err.Error()})
}

func bindJSON(ctx *gin.Context, obj any) bool {
	if err := ctx.ShouldBindJSON(obj); err != nil {
		deps.Log.Debug("Failed to bind JSON", "path", ctx.FullPath(), "error", err)
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return false
	}
	return true
}

// uuidParam reads a UUID path parameter and answers 400 when it is malformed.
func uuidParam(ctx *gin.Context, name string) (string, bool) {
	id, err := utils.GetUUIDParam(ctx, name)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", false
	}
	return id, true
}

// findOr404 loads a row by the query and answers 404 or 500 on failure.
func findOr404(ctx *gin.Context, query *gorm.DB, dest any, notFound string) bool {
	err := query.First(dest).Error
	if err == nil {
		return true
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		ctx.JSON(http.StatusNotFound, gin.H{"error": notFound})
		return false
	}

	serverError(ctx, "Failed to retrieve "+strings.ToLower(strings.TrimSuffix(notFound, " not found")), err)
	return false
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}

// detached keeps request values but outlives a client disconnect, so
// notifications started by a request still finish.
func detached(ctx *gin.Context) context.Context {
	return context.WithoutCancel(ctx.Request.Context())
}
