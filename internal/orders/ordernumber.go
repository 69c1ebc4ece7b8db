package orders

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GenerateOrderNumber builds a human-readable unique order number:
// <PREFIX>-<unix-seconds>-<6-hex>. The timestamp keeps numbers roughly
// sortable; the random token makes same-second collisions negligible, and
// the unique index on orders.order_number catches the rest.
func GenerateOrderNumber(prefix string) string {
	if prefix == "" {
		prefix = "ORD"
	}
	token := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	return fmt.Sprintf("%s-%d-%s", prefix, time.Now().Unix(), strings.ToUpper(token))
}
