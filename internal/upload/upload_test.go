package upload

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/ec-shop-api/internal/apperr"
)

// Smallest valid images by signature.
var (
	pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00\x1f\x15\xc4\x89")
	gifHeader = []byte("GIF89a\x01\x00\x01\x00\x00\x00\x00;")
	jpgHeader = []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00\x01\x01\x00\x00\x01\x00\x01\x00\x00")
)

type memStorage struct {
	key, contentType string
	data             []byte
	err              error
}

func (m *memStorage) Save(_ context.Context, key, contentType string, body io.Reader, _ int64) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	m.key, m.contentType, m.data = key, contentType, data
	return "https://cdn.example.com/" + key, nil
}

func newTestService(storage Storage, max int64) *Service {
	svc := NewService(storage, max, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC) }
	return svc
}

func TestSniff(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		want    string
		wantExt string
		wantErr error
	}{
		{"png", pngHeader, "image/png", ".png", nil},
		{"gif", gifHeader, "image/gif", ".gif", nil},
		{"jpeg", jpgHeader, "image/jpeg", ".jpg", nil},
		{"text", []byte("hello, world"), "", "", ErrUnsupportedType},
		{"pdf", []byte("%PDF-1.7\n"), "", "", ErrUnsupportedType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ct, ext, err := sniff(tt.data)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, ct)
			assert.Equal(t, tt.wantExt, ext)
		})
	}
}

func TestService_Image(t *testing.T) {
	storage := &memStorage{}
	svc := newTestService(storage, 1024)

	res, err := svc.Image(context.Background(), bytes.NewReader(pngHeader))

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.Key, "images/2024/03/"))
	assert.True(t, strings.HasSuffix(res.Key, ".png"))
	assert.Equal(t, "https://cdn.example.com/"+res.Key, res.URL)
	assert.Equal(t, "image/png", res.ContentType)
	assert.Equal(t, int64(len(pngHeader)), res.Size)
	assert.Equal(t, pngHeader, storage.data)
}

func TestService_ImageRejects(t *testing.T) {
	svc := newTestService(&memStorage{}, 16)

	_, err := svc.Image(context.Background(), bytes.NewReader(nil))
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = svc.Image(context.Background(), bytes.NewReader(pngHeader))
	assert.ErrorIs(t, err, ErrTooLarge)

	_, err = svc.Image(context.Background(), strings.NewReader("<svg></svg>"))
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestService_ImageStorageFailure(t *testing.T) {
	svc := newTestService(&memStorage{err: errors.New("bucket gone")}, 1024)

	_, err := svc.Image(context.Background(), bytes.NewReader(gifHeader))

	assert.Equal(t, apperr.KindUpstream, apperr.KindOf(err))
}

func TestDiskStorage_Save(t *testing.T) {
	dir := t.TempDir()
	disk := NewDiskStorage(dir, "/uploads")

	url, err := disk.Save(context.Background(), "images/2024/03/a.png", "image/png", bytes.NewReader(pngHeader), int64(len(pngHeader)))

	require.NoError(t, err)
	assert.Equal(t, "/uploads/images/2024/03/a.png", url)
	got, err := os.ReadFile(filepath.Join(dir, "images", "2024", "03", "a.png"))
	require.NoError(t, err)
	assert.Equal(t, pngHeader, got)

	leftovers, err := filepath.Glob(filepath.Join(dir, "images", "2024", "03", ".upload-*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

type fakeS3 struct {
	input *s3.PutObjectInput
	err   error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = in
	return &s3.PutObjectOutput{}, f.err
}

func TestS3Storage_Save(t *testing.T) {
	client := &fakeS3{}
	storage := newS3Storage(client, "shop-images", "https://cdn.example.com/")

	url, err := storage.Save(context.Background(), "images/x.gif", "image/gif", bytes.NewReader(gifHeader), int64(len(gifHeader)))

	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/images/x.gif", url)
	assert.Equal(t, "shop-images", aws.ToString(client.input.Bucket))
	assert.Equal(t, "images/x.gif", aws.ToString(client.input.Key))
	assert.Equal(t, "image/gif", aws.ToString(client.input.ContentType))
	assert.Equal(t, int64(len(gifHeader)), aws.ToInt64(client.input.ContentLength))

	client.err = errors.New("access denied")
	_, err = storage.Save(context.Background(), "images/y.gif", "image/gif", bytes.NewReader(gifHeader), 1)
	assert.ErrorContains(t, err, "access denied")
}
