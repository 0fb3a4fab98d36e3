package orders

import (
	"fmt"
	"math/rand"
	"time"
)

// maxNumberRetries bounds how often checkout retries after the order number
// unique index rejects an insert. Collisions need the same second and the
// same random suffix, so one retry is already rare.
const maxNumberRetries = 3

// NewOrderNumber builds a human-readable order number from a UTC timestamp
// and a random disambiguator, e.g. ORD20260831142355-48213. The storage
// unique index stays the authoritative uniqueness guard.
func NewOrderNumber() string {
	return fmt.Sprintf("ORD%s-%05d", time.Now().UTC().Format("20060102150405"), rand.Intn(100000))
}
