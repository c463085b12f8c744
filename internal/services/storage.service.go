package services

import (
	"bytes"
	"context"
	"io"
	"strings"

	"opsflow/config"
	"opsflow/internal/metrics"

	"cloud.google.com/go/storage"
	logger "github.com/Bparsons0904/goLogger"
	"google.golang.org/api/option"
)

// DocumentStore uploads generated documents and returns their public URL.
type DocumentStore interface {
	Upload(ctx context.Context, bucket, object, contentType string, data []byte) (string, error)
}

type StorageService struct {
	client        *storage.Client
	publicBaseURL string
	log           logger.Logger
}

// NewStorageService connects to Cloud Storage when STORAGE_PROJECT_ID is set. Otherwise
// the service is disabled and every Upload returns ErrStorageDisabled.
func NewStorageService(ctx context.Context, cfg config.Config) (*StorageService, error) {
	log := logger.New("StorageService")
	service := &StorageService{
		publicBaseURL: strings.TrimRight(cfg.StoragePublicBaseURL, "/"),
		log:           log,
	}

	if cfg.StorageProjectID == "" {
		log.Function("NewStorageService").Warn("Document storage disabled, STORAGE_PROJECT_ID not set")
		return service, nil
	}

	client, err := storage.NewClient(ctx, option.WithCredentialsFile(cfg.StorageCredentials))
	if err != nil {
		return nil, log.Function("NewStorageService").Err("failed to create storage client", err)
	}

	service.client = client
	return service, nil
}

func (s *StorageService) Enabled() bool {
	return s.client != nil
}

func (s *StorageService) Upload(
	ctx context.Context,
	bucket, object, contentType string,
	data []byte,
) (string, error) {
	log := s.log.Function("Upload")

	if s.client == nil {
		metrics.IncDocumentUpload(bucket, "disabled")
		return "", ErrStorageDisabled
	}

	writer := s.client.Bucket(bucket).Object(object).NewWriter(ctx)
	writer.ContentType = contentType
	writer.CacheControl = "no-cache, max-age=0"

	if _, err := io.Copy(writer, bytes.NewReader(data)); err != nil {
		_ = writer.Close()
		metrics.IncDocumentUpload(bucket, "failed")
		return "", log.Err("failed to write object", err, "bucket", bucket, "object", object)
	}

	if err := writer.Close(); err != nil {
		metrics.IncDocumentUpload(bucket, "failed")
		return "", log.Err("failed to finalize object", err, "bucket", bucket, "object", object)
	}

	metrics.IncDocumentUpload(bucket, "uploaded")
	log.Info("Document uploaded", "bucket", bucket, "object", object, "bytes", len(data))

	return s.PublicURL(bucket, object), nil
}

func (s *StorageService) PublicURL(bucket, object string) string {
	return s.publicBaseURL + "/" + bucket + "/" + strings.TrimLeft(object, "/")
}

func (s *StorageService) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}
