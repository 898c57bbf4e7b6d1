package storage

import (
	"context"
	"fmt"
	"io"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"go.uber.org/zap"
)

// DriveConfig holds Google Drive settings
type DriveConfig struct {
	FolderID        string
	CredentialsFile string
	Endpoint        string
}

// DriveStore uploads files into a shared Drive folder
type DriveStore struct {
	files    *drive.FilesService
	folderID string
	logger   *zap.Logger
}

// NewDriveStore creates a Drive client scoped to file creation
func NewDriveStore(ctx context.Context, cfg DriveConfig, logger *zap.Logger) (*DriveStore, error) {
	if cfg.FolderID == "" {
		return nil, fmt.Errorf("drive folder id is required")
	}

	opts := []option.ClientOption{option.WithScopes(drive.DriveFileScope)}
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint), option.WithoutAuthentication())
	}

	srv, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}

	logger.Info("drive file store ready", zap.String("folder_id", cfg.FolderID))

	return &DriveStore{
		files:    srv.Files,
		folderID: cfg.FolderID,
		logger:   logger,
	}, nil
}

// Put uploads content as a new file in the configured folder
func (s *DriveStore) Put(ctx context.Context, name, contentType string, content io.Reader) (*Object, error) {
	meta := &drive.File{
		Name:     name,
		MimeType: contentType,
		Parents:  []string{s.folderID},
	}

	created, err := s.files.Create(meta).
		Media(content, googleapi.ContentType(contentType)).
		Fields("id", "name", "webViewLink").
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to upload %s to drive: %w", name, err)
	}

	link := created.WebViewLink
	if link == "" {
		link = "https://drive.google.com/file/d/" + created.Id + "/view"
	}

	s.logger.Debug("file uploaded to drive",
		zap.String("file_id", created.Id),
		zap.String("name", name))

	return &Object{Name: created.Id, URL: link}, nil
}

// Close is a no-op; the Drive client holds no resources of its own
func (s *DriveStore) Close() error {
	return nil
}
