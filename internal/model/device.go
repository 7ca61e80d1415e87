package model

import "time"

// Device is a registered push token. Registration races can produce more
// than one row for the same physical device; the dispatcher deduplicates by
// token before building a relay batch.
type Device struct {
	ID           int64     `json:"id"`
	Token        string    `json:"token"`
	Platform     string    `json:"platform"`
	RegisteredAt time.Time `json:"registered_at"`
}
