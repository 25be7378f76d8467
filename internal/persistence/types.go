package persistence

import "time"

// Record is a single persisted sample: the decoded payload alongside its
// arrival time, as appended to a topic's document.
type Record struct {
	Message   float64   `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}
