package checkout

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// IDGenerator returns a new order id for the given instant.
type IDGenerator func(now time.Time) string

// NewOrderID builds ids like 261018-4F7A2C: a sortable date prefix plus a
// random suffix. Collisions are possible and surface as a conflict on insert.
func NewOrderID(now time.Time) string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return now.Format("060102") + "-" + strings.ToUpper(raw[:6])
}
