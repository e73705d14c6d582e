package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// MaxImageSize bounds a single uploaded product image.
const MaxImageSize int64 = 10 << 20

var (
	ErrUnsupportedContentType = errors.New("unsupported image content type")
	ErrFileTooLarge           = errors.New("file exceeds maximum allowed size")
)

var AllowedImageTypes = []string{
	"image/jpeg",
	"image/png",
	"image/gif",
	"image/webp",
}

// ImageStorage persists uploaded images and returns the public URL of each one.
type ImageStorage interface {
	Upload(ctx context.Context, filename, contentType string, body io.Reader, size int64) (string, error)
}

// ValidateImage checks the declared content type and size of an upload.
func ValidateImage(contentType string, size int64) error {
	if size > MaxImageSize {
		return fmt.Errorf("%w: %d bytes", ErrFileTooLarge, MaxImageSize)
	}
	contentType = strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	for _, allowed := range AllowedImageTypes {
		if contentType == allowed {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnsupportedContentType, contentType)
}

// objectKey builds a collision-free key that keeps the original extension.
func objectKey(folder, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return fmt.Sprintf("%s/%s%s", folder, uuid.New().String(), ext)
}
