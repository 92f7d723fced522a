package handlers

import (
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/powerbrief-dev/powerbrief/internal/services"
	"github.com/powerbrief-dev/powerbrief/internal/storage"
	"github.com/powerbrief-dev/powerbrief/internal/types"
	"github.com/powerbrief-dev/powerbrief/internal/utils"
)

const defaultMaxUploadMB = 500

// StoredFile describes an uploaded object.
type StoredFile struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

func maxUploadBytes() int64 {
	mb := deps.Config.Storage.MaxUploadMB
	if mb <= 0 {
		mb = defaultMaxUploadMB
	}
	return mb << 20
}

func contentTypeOf(header *multipart.FileHeader) string {
	if ct := header.Header.Get("Content-Type"); ct != "" && ct != "application/octet-stream" {
		return ct
	}
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(header.Filename))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// storeFormFile writes the multipart field to object storage under the brand
// folder. On failure the response has been written and ok is false.
func storeFormFile(ctx *gin.Context, brandID, folder, field string) (StoredFile, bool) {
	if deps.Store == nil {
		upstreamError(ctx, "Failed to store file", services.ErrNotConfigured)
		return StoredFile{}, false
	}

	header, err := ctx.FormFile(field)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("File field %q is required", field)})
		return StoredFile{}, false
	}

	if header.Size > maxUploadBytes() {
		ctx.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File is too large"})
		return StoredFile{}, false
	}

	file, err := header.Open()
	if err != nil {
		serverError(ctx, "Failed to read upload", err)
		return StoredFile{}, false
	}
	defer file.Close()

	stored := StoredFile{
		Key:         storage.ObjectKey(brandID, folder, header.Filename),
		FileName:    header.Filename,
		ContentType: contentTypeOf(header),
		Size:        header.Size,
	}

	stored.URL, err = deps.Store.Put(ctx.Request.Context(), stored.Key, stored.ContentType, file)
	if err != nil {
		upstreamError(ctx, "Failed to store file", err)
		return StoredFile{}, false
	}

	return stored, true
}

func UploadFile(ctx *gin.Context) {
	access, ok := utils.RequireBrand(ctx, types.RoleEditor)
	if !ok {
		return
	}

	folder := storage.SanitizeFileName(ctx.DefaultPostForm("folder", "uploads"))

	stored, ok := storeFormFile(ctx, access.Brand.ID, folder, "file")
	if !ok {
		return
	}

	ctx.JSON(http.StatusCreated, stored)
}
