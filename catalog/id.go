package catalog

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultIDPrefix prefixes generated item ids.
const DefaultIDPrefix = "item"

// NewID returns an opaque id of the form prefix_<unix millis>_<random>.
// Uniqueness against the store is not checked here; callers write with a
// must-not-exist condition and regenerate on conflict.
func NewID(prefix string, now time.Time) string {
	if prefix == "" {
		prefix = DefaultIDPrefix
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return prefix + "_" + strconv.FormatInt(now.UnixMilli(), 10) + "_" + suffix
}
