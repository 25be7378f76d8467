package mailqueue

import (
	"time"

	"github.com/google/uuid"
)

// Item is a single pending alert email awaiting delivery.
type Item struct {
	ID           uuid.UUID
	Recipients   []string
	Subject      string
	Body         string
	Retries      int
	NextEligible time.Time
}
