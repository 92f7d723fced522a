package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/powerbrief-dev/powerbrief/internal/progress"
	"github.com/powerbrief-dev/powerbrief/internal/types"
	"github.com/powerbrief-dev/powerbrief/internal/utils"
)

// visibleProgress returns the upload when the caller can see its brand.
// Unknown and foreign uploads both answer 404.
func visibleProgress(ctx *gin.Context) (progress.Snapshot, bool) {
	snap, ok := deps.Progress.Get(ctx.Param("upload_id"))
	if ok {
		user, authenticated := utils.RequireUser(ctx)
		if !authenticated {
			return snap, false
		}
		_, err := utils.BrandAccessFor(user.ID, snap.BrandID, types.RoleViewer)
		ok = err == nil
	}

	if !ok {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Upload not found"})
	}
	return snap, ok
}

// GetProgress returns the current state of a background upload.
func GetProgress(ctx *gin.Context) {
	snap, ok := visibleProgress(ctx)
	if !ok {
		return
	}

	ctx.JSON(http.StatusOK, snap)
}
