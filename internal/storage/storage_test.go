package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateImage(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		size        int64
		wantErr     error
	}{
		{"PNG", "image/png", 100, nil},
		{"JPEG with params", "image/jpeg; charset=binary", 100, nil},
		{"Text", "text/plain", 100, ErrUnsupportedContentType},
		{"Too large", "image/png", MaxImageSize + 1, ErrFileTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateImage(tt.contentType, tt.size)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestLocalStorage_Upload(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir, "/uploads/")
	require.NoError(t, err)
	assert.Equal(t, dir, store.Dir())

	url, err := store.Upload(context.Background(), "Photo.PNG", "image/png", strings.NewReader("png-bytes"), 9)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/uploads/products/"))
	assert.True(t, strings.HasSuffix(url, ".png"))

	data, err := os.ReadFile(filepath.Join(dir, strings.TrimPrefix(url, "/uploads/")))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	_, err = store.Upload(context.Background(), "notes.txt", "text/plain", strings.NewReader("x"), 1)
	assert.ErrorIs(t, err, ErrUnsupportedContentType)
}

type fakeS3 struct {
	input *s3.PutObjectInput
	body  string
}

func (f *fakeS3) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = params
	b, _ := io.ReadAll(params.Body)
	f.body = string(b)
	return &s3.PutObjectOutput{}, nil
}

func TestS3Storage_Upload(t *testing.T) {
	client := &fakeS3{}
	store := &S3Storage{client: client, bucket: "shop-images", region: "eu-central-1"}

	url, err := store.Upload(context.Background(), "ring.jpg", "image/jpeg", strings.NewReader("jpeg"), 4)
	require.NoError(t, err)

	require.NotNil(t, client.input)
	assert.Equal(t, "shop-images", aws.ToString(client.input.Bucket))
	assert.Equal(t, "image/jpeg", aws.ToString(client.input.ContentType))
	assert.Equal(t, "jpeg", client.body)
	assert.Equal(t, "https://shop-images.s3.eu-central-1.amazonaws.com/"+aws.ToString(client.input.Key), url)

	store.baseURL = "https://cdn.example.com"
	url, err = store.Upload(context.Background(), "ring.jpg", "image/jpeg", strings.NewReader("jpeg"), 4)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/"+aws.ToString(client.input.Key), url)
}
