package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ikkim/storefront-backend/pkg/logger"
)

// LocalStorage writes images below dir and serves them under urlPrefix.
type LocalStorage struct {
	dir       string
	urlPrefix string
}

func NewLocalStorage(dir, urlPrefix string) (*LocalStorage, error) {
	if err := os.MkdirAll(filepath.Join(dir, productImageFolder), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &LocalStorage{
		dir:       dir,
		urlPrefix: strings.TrimRight(urlPrefix, "/"),
	}, nil
}

func (s *LocalStorage) Dir() string {
	return s.dir
}

func (s *LocalStorage) Upload(ctx context.Context, filename, contentType string, body io.Reader, size int64) (string, error) {
	if err := ValidateImage(contentType, size); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	key := objectKey(productImageFolder, filename)
	f, err := os.Create(filepath.Join(s.dir, filepath.FromSlash(key)))
	if err != nil {
		logger.Error("Failed to create image file", err, logger.Fields{
			"key": key,
		})
		return "", err
	}
	defer f.Close()

	if _, err := io.Copy(f, io.LimitReader(body, MaxImageSize+1)); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}
	return s.urlPrefix + "/" + key, nil
}
