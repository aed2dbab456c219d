package blob

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/imai1205/zumen-connect-backend/internal/bootstrap/config"
	"github.com/imai1205/zumen-connect-backend/internal/errs"
)

// GCSStore keeps drawing artifacts in a Google Cloud Storage bucket.
type GCSStore struct {
	client *storage.Client
	bucket string
}

func NewGCSStore(ctx context.Context, cfg config.BlobConfig) (*GCSStore, error) {
	if cfg.ProjectID == "" || cfg.Bucket == "" || cfg.Credentials == "" {
		return nil, errors.New("blob.project_id, blob.bucket and blob.credentials are required for the gcs driver")
	}

	opt, err := CredentialOption(cfg.Credentials)
	if err != nil {
		return nil, err
	}

	client, err := storage.NewClient(ctx, opt)
	if err != nil {
		return nil, errs.Wrap(err, "create gcs client")
	}

	return &GCSStore{client: client, bucket: cfg.Bucket}, nil
}

func (s *GCSStore) Download(ctx context.Context, path string) ([]byte, error) {
	reader, err := s.client.Bucket(s.bucket).Object(path).NewReader(ctx)
	if err != nil {
		return nil, errs.Wrapf(err, "open gcs object %q", path)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, errs.Wrapf(err, "read gcs object %q", path)
	}
	return data, nil
}

func (s *GCSStore) Upload(ctx context.Context, path string, data []byte, contentType string) error {
	writer := s.client.Bucket(s.bucket).Object(path).NewWriter(ctx)
	writer.ContentType = contentType

	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return errs.Wrapf(err, "write gcs object %q", path)
	}
	if err := writer.Close(); err != nil {
		return errs.Wrapf(err, "close gcs object %q", path)
	}
	return nil
}

func (s *GCSStore) Close() error {
	return s.client.Close()
}

// CredentialOption accepts either an inline service-account JSON document or
// a path to one.
func CredentialOption(credentials string) (option.ClientOption, error) {
	if json.Valid([]byte(credentials)) {
		return option.WithCredentialsJSON([]byte(credentials)), nil
	}
	if _, err := os.Stat(credentials); err == nil {
		return option.WithCredentialsFile(credentials), nil
	}
	return nil, fmt.Errorf("blob.credentials is neither valid JSON nor an existing file path")
}
