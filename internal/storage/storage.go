// Package storage keeps uploaded document files under their stored names.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/maigenai/fingenius/pkg/config"

	"go.uber.org/zap"
)

var ErrNotExist = errors.New("stored file does not exist")

type Storage interface {
	// Save writes r under name and returns the number of bytes written.
	Save(ctx context.Context, name string, r io.Reader) (int64, error)
	Exists(ctx context.Context, name string) (bool, error)
	// ReadBytes returns ErrNotExist for a missing file.
	ReadBytes(ctx context.Context, name string) ([]byte, error)
	Delete(ctx context.Context, name string) error
}

// New returns the backend selected in cfg. The returned closer releases client resources.
func New(ctx context.Context, cfg *config.StorageConfig, logger *zap.Logger) (Storage, func() error, error) {
	switch cfg.Backend {
	case "local":
		s, err := NewLocal(cfg.UploadDir, logger)
		if err != nil {
			return nil, nil, err
		}
		return s, func() error { return nil }, nil
	case "gcs":
		s, err := NewGCS(ctx, cfg.Bucket, cfg.CredentialsFile, logger)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	}
	return nil, nil, fmt.Errorf("unsupported storage backend %q", cfg.Backend)
}
