package tool

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

func GenerateUUIDV7() string {
	return uuid.Must(uuid.NewV7()).String()
}

// GenerateTradeNo builds an outbound trade number: timestamp prefix plus a
// random suffix. Uniqueness is enforced against the order table by the
// caller, not assumed here.
func GenerateTradeNo(now time.Time) string {
	return fmt.Sprintf("%s%06d", now.Format("20060102150405"), rand.Intn(1000000))
}
