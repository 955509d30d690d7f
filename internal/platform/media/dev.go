package media

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/testimonialnudger/api/internal/domain"
	"github.com/testimonialnudger/api/pkg/logger"
)

// DevStore fabricates URLs without uploading anything. Selected via
// MEDIA_DRIVER=dev.
type DevStore struct{}

func NewDevStore() *DevStore {
	return &DevStore{}
}

func (s *DevStore) Upload(_ context.Context, file domain.MediaFile, folder string) (string, error) {
	url := fmt.Sprintf("https://media.dev.invalid/%s/%s", folder, uuid.NewString())
	logger.Info("[DEV MEDIA] Upload",
		"filename", file.Filename,
		"content_type", file.ContentType,
		"bytes", len(file.Data),
		"url", url,
	)
	return url, nil
}

func (s *DevStore) Destroy(_ context.Context, url string) error {
	logger.Info("[DEV MEDIA] Destroy", "url", url)
	return nil
}

var _ Store = (*DevStore)(nil)
