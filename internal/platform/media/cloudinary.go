package media

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"

	"github.com/testimonialnudger/api/internal/domain"
)

type CloudinaryStore struct {
	client *cloudinary.Cloudinary
}

func NewCloudinaryStore(cloudinaryURL string) (*CloudinaryStore, error) {
	if cloudinaryURL == "" {
		return nil, fmt.Errorf("CLOUDINARY_URL not set")
	}
	client, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, fmt.Errorf("cloudinary init: %w", err)
	}
	return &CloudinaryStore{client: client}, nil
}

func (s *CloudinaryStore) Upload(ctx context.Context, file domain.MediaFile, folder string) (string, error) {
	resourceType := "image"
	if strings.HasPrefix(file.ContentType, "video/") {
		resourceType = "video"
	}

	resp, err := s.client.Upload.Upload(ctx, bytes.NewReader(file.Data), uploader.UploadParams{
		Folder:       folder,
		PublicID:     uuid.NewString(),
		ResourceType: resourceType,
	})
	if err != nil {
		return "", fmt.Errorf("cloudinary upload: %w", err)
	}
	return resp.SecureURL, nil
}

func (s *CloudinaryStore) Destroy(ctx context.Context, assetURL string) error {
	publicID, resourceType, ok := parseAssetURL(assetURL)
	if !ok {
		return fmt.Errorf("unrecognized asset url: %s", assetURL)
	}

	_, err := s.client.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     publicID,
		ResourceType: resourceType,
	})
	return err
}

// parseAssetURL extracts the public ID and resource type from a delivery URL
// of the form https://res.cloudinary.com/<cloud>/<type>/upload/v123/<folder>/<id>.<ext>
func parseAssetURL(assetURL string) (publicID, resourceType string, ok bool) {
	u, err := url.Parse(assetURL)
	if err != nil {
		return "", "", false
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	uploadIdx := -1
	for i, p := range parts {
		if p == "upload" {
			uploadIdx = i
			break
		}
	}
	if uploadIdx < 1 || uploadIdx+1 >= len(parts) {
		return "", "", false
	}

	resourceType = parts[uploadIdx-1]
	rest := parts[uploadIdx+1:]
	// Skip the version segment when present.
	if len(rest) > 1 && strings.HasPrefix(rest[0], "v") {
		rest = rest[1:]
	}

	id := strings.Join(rest, "/")
	id = strings.TrimSuffix(id, path.Ext(id))
	if id == "" {
		return "", "", false
	}
	return id, resourceType, true
}

var _ Store = (*CloudinaryStore)(nil)
