package objectkey

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// New builds a collision free destination key such as
// videos/video/1718000000000-<uuid>.mp4 for the given original file name.
func New(prefix, fileName string, now time.Time) string {
	ext := strings.ToLower(path.Ext(path.Base(strings.ReplaceAll(fileName, "\\", "/"))))
	if len(ext) > 16 || strings.ContainsAny(ext, " /?#%") {
		ext = ""
	}

	name := fmt.Sprintf("%d-%s%s", now.UnixMilli(), uuid.NewString(), ext)
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}
