package blob

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/imai1205/zumen-connect-backend/internal/errs"
)

// FSStore keeps artifacts on the local filesystem, mirroring the object key
// layout under one root. Used for local development and tests.
type FSStore struct {
	root string
}

func NewFSStore(root string) (*FSStore, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("blob.root is required for the fs driver")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, errs.Wrapf(err, "create blob root %q", root)
	}
	return &FSStore{root: root}, nil
}

func (s *FSStore) Download(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(s.root, filepath.FromSlash(path)))
	if err != nil {
		return nil, errs.Wrapf(err, "read blob %q", path)
	}
	return data, nil
}

func (s *FSStore) Upload(ctx context.Context, path string, data []byte, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_ = contentType // no sidecar metadata on disk

	target := filepath.Join(s.root, filepath.FromSlash(path))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return errs.Wrapf(err, "create blob directory for %q", path)
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return errs.Wrapf(err, "write blob %q", path)
	}
	return nil
}
