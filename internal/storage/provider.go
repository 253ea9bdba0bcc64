// Package storage issues direct-upload URLs for resource objects and resolves
// their public links. Object bytes never pass through the API handlers except
// for the local provider, which stands in for a bucket during development.
package storage

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"nodal/internal/config"
)

// UploadTarget is where a client PUTs the object bytes.
type UploadTarget struct {
	URL     string
	Headers map[string]string
}

type Provider interface {
	Name() string
	UploadURL(ctx context.Context, objectPath, fileType string) (UploadTarget, error)
	PublicURL(objectPath string) string
	Delete(ctx context.Context, objectPath string) error
}

// ObjectPath returns the key a resource is stored under.
func ObjectPath(userID, name, ext string) string {
	return fmt.Sprintf("resources/%s/%s.%s", userID, name, ext)
}

// UserPrefix is the key prefix every object of userID lives under.
func UserPrefix(userID string) string {
	return "resources/" + userID + "/"
}

// ValidExt reports whether ext can be used as a file extension in an object key.
func ValidExt(ext string) bool {
	return ext != "" && !strings.ContainsAny(ext, "./\\")
}

func joinURL(base, objectPath string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path.Clean("/"+objectPath), "/")
}

// NewFromConfig creates a Provider for the configured storage type.
func NewFromConfig(ctx context.Context, cfg config.StorageConfig, secret string, ttl time.Duration) (Provider, error) {
	switch cfg.Provider {
	case "local":
		return NewLocalStorage(cfg.Path, cfg.PublicBaseURL, secret, ttl)
	case "s3":
		return NewS3Storage(ctx, cfg, ttl)
	case "supabase":
		return NewSupabaseStorage(cfg)
	default:
		return nil, fmt.Errorf("unknown storage provider: %s", cfg.Provider)
	}
}
