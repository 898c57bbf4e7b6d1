// Package storage uploads submitted documents to cloud file storage.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/upb/thesis-workflow/config"
	"go.uber.org/zap"
)

// Object describes a stored file
type Object struct {
	Name string
	URL  string
}

// FileStore persists uploaded documents and returns where they can be fetched
type FileStore interface {
	Put(ctx context.Context, name, contentType string, content io.Reader) (*Object, error)
	Close() error
}

// ObjectName builds a collision free object name under prefix that keeps
// the original extension.
func ObjectName(prefix, originalName string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(originalName)))
	return path.Join(prefix, uuid.NewString()+ext)
}

// New builds the file store selected by cfg.Driver
func New(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (FileStore, error) {
	switch cfg.Driver {
	case "gcs":
		return NewGCSStore(ctx, GCSConfig{
			Bucket:          cfg.GCSBucket,
			CredentialsFile: cfg.GCSCredentialsFile,
			PublicBaseURL:   cfg.GCSPublicBaseURL,
		}, logger)
	case "drive":
		return NewDriveStore(ctx, DriveConfig{
			FolderID:        cfg.DriveFolderID,
			CredentialsFile: cfg.DriveCredentialsFile,
		}, logger)
	default:
		return nil, fmt.Errorf("unknown storage driver: %s", cfg.Driver)
	}
}
