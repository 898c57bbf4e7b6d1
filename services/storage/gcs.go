package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
	"go.uber.org/zap"
)

// GCSConfig holds Cloud Storage settings
type GCSConfig struct {
	Bucket          string
	CredentialsFile string
	PublicBaseURL   string
	Endpoint        string
}

// GCSStore writes objects to a Cloud Storage bucket
type GCSStore struct {
	client  *gcs.Client
	bucket  string
	baseURL string
	logger  *zap.Logger
}

// NewGCSStore creates a client for cfg.Bucket. Without a credentials file
// the application default credentials are used.
func NewGCSStore(ctx context.Context, cfg GCSConfig, logger *zap.Logger) (*GCSStore, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("gcs bucket is required")
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint), option.WithoutAuthentication())
	}

	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gcs client: %w", err)
	}

	baseURL := cfg.PublicBaseURL
	if baseURL == "" {
		baseURL = "https://storage.googleapis.com"
	}

	logger.Info("gcs file store ready", zap.String("bucket", cfg.Bucket))

	return &GCSStore{
		client:  client,
		bucket:  cfg.Bucket,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		logger:  logger,
	}, nil
}

// Put streams content into the bucket under name
func (s *GCSStore) Put(ctx context.Context, name, contentType string, content io.Reader) (*Object, error) {
	w := s.client.Bucket(s.bucket).Object(name).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := io.Copy(w, content); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("failed to write object %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize object %s: %w", name, err)
	}

	s.logger.Debug("object stored",
		zap.String("bucket", s.bucket),
		zap.String("object", name),
		zap.Int64("size", w.Attrs().Size))

	return &Object{Name: name, URL: s.publicURL(name)}, nil
}

func (s *GCSStore) publicURL(name string) string {
	return s.baseURL + "/" + url.PathEscape(s.bucket) + "/" + (&url.URL{Path: name}).EscapedPath()
}

// Close releases the underlying client
func (s *GCSStore) Close() error {
	return s.client.Close()
}
