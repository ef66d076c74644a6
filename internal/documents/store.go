package documents

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/richxcame/fleet/pkg/security"
	"github.com/richxcame/fleet/pkg/storage"
)

// ObjectStore is the object storage client documents are uploaded to
type ObjectStore interface {
	Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string, onProgress storage.ProgressFunc) (string, error)
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
}

// ObjectKey namespaces an upload by record and category:
// <recordID>/<category>/<unixMillis>_<index>_<name>
func ObjectKey(recordID uuid.UUID, category Category, at time.Time, index int, name string) string {
	return fmt.Sprintf("%s/%s/%d_%d_%s", recordID, category, at.UnixMilli(), index, security.SanitizeFilename(name))
}
