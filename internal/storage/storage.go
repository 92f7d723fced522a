// Package storage keeps uploaded documents and media in a local directory or
// a Supabase Storage bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/powerbrief-dev/powerbrief/internal/config"
)

var ErrObjectNotFound = errors.New("object not found")

// Store is a flat key/value object store returning public URLs.
type Store interface {
	Put(ctx context.Context, key, contentType string, content io.Reader) (string, error)
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

func New(settings config.StorageSettings) (Store, error) {
	switch settings.Type {
	case config.StorageTypeLocal:
		return NewLocalStore(settings.LocalDir, settings.PublicBaseURL)
	case config.StorageTypeSupabase:
		return NewSupabaseStore(settings.SupabaseURL, settings.ServiceKey, settings.Bucket), nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", settings.Type)
	}
}

// ObjectKey builds "<brand>/<folder>/<uuid>-<sanitized name>".
func ObjectKey(brandID, folder, fileName string) string {
	return path.Join(brandID, folder, uuid.NewString()+"-"+SanitizeFileName(fileName))
}

// SanitizeFileName keeps letters, digits, dot, dash and underscore.
func SanitizeFileName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('_')
		}
	}

	cleaned := strings.TrimLeft(b.String(), ".")
	if cleaned == "" {
		return "file"
	}
	return cleaned
}

func validKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "..") {
		return fmt.Errorf("invalid object key %q", key)
	}
	return nil
}
