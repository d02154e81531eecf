// Package upload accepts product images, checks what they really are and
// hands them to a Storage backend.
package upload

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/ec-shop-api/internal/apperr"
)

var (
	ErrEmpty           = apperr.Validation("no image uploaded")
	ErrTooLarge        = apperr.Validation("image is too large")
	ErrUnsupportedType = apperr.Validation("only jpeg, png, webp and gif images are allowed")
)

// allowed maps sniffed content types to the extension stored objects get.
var allowed = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// Storage persists an object and returns the URL clients load it from.
type Storage interface {
	Save(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
}

type Result struct {
	URL         string `json:"url"`
	Key         string `json:"key"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

type Service struct {
	storage  Storage
	maxBytes int64
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(storage Storage, maxBytes int64, logger *zap.Logger) *Service {
	return &Service{
		storage:  storage,
		maxBytes: maxBytes,
		logger:   logger.Named("upload"),
		now:      time.Now,
	}
}

// MaxBytes is the largest accepted image.
func (s *Service) MaxBytes() int64 {
	return s.maxBytes
}

// Image reads at most MaxBytes from r, sniffs the content type from the
// bytes themselves and stores the object under images/YYYY/MM/.
func (s *Service) Image(ctx context.Context, r io.Reader) (*Result, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, fmt.Errorf("read upload: %w", err))
	}
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	if int64(len(data)) > s.maxBytes {
		return nil, ErrTooLarge
	}

	contentType, ext, err := sniff(data)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("images/%s/%s%s", s.now().UTC().Format("2006/01"), uuid.New().String(), ext)
	url, err := s.storage.Save(ctx, key, contentType, bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, apperr.Upstream("failed to store image", err)
	}

	s.logger.Info("image stored",
		zap.String("key", key),
		zap.String("content_type", contentType),
		zap.Int("size", len(data)),
	)
	return &Result{URL: url, Key: key, ContentType: contentType, Size: int64(len(data))}, nil
}

func sniff(data []byte) (contentType, ext string, err error) {
	mtype := mimetype.Detect(data)
	// Detect may append parameters such as charset for text types.
	contentType, _, _ = strings.Cut(mtype.String(), ";")
	ext, ok := allowed[contentType]
	if !ok {
		return "", "", ErrUnsupportedType
	}
	return contentType, ext, nil
}
