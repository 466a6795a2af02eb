package imageproc

import (
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// StorageKey produces the blob key for an upload: a random uuid carrying the
// original file's extension as-given, or "jpg" when the name has none. The
// original filename never reaches the blob store.
func StorageKey(originalName string) string {
	ext := strings.TrimPrefix(filepath.Ext(originalName), ".")
	if ext == "" {
		ext = "jpg"
	}
	return uuid.NewString() + "." + ext
}
