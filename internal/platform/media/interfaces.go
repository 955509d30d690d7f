package media

import (
	"context"

	"github.com/testimonialnudger/api/internal/domain"
)

// Store accepts raw upload bytes and returns a stable content URL. Upload
// failures are non-fatal to submission; callers log and drop the file.
type Store interface {
	Upload(ctx context.Context, file domain.MediaFile, folder string) (string, error)
	// Destroy removes a previously uploaded asset by its content URL.
	Destroy(ctx context.Context, url string) error
}

// SupportedType reports whether a MIME type is accepted for testimonial
// media. Anything else is silently skipped, not an error.
func SupportedType(contentType string) bool {
	return len(contentType) > 6 &&
		(contentType[:6] == "image/" || contentType[:6] == "video/")
}
