package models

import "time"

// PendingConsent is the server-side half of a federated consent round trip.
type PendingConsent struct {
	State      string    `json:"state"`
	Verifier   string    `json:"verifier"`
	ProviderID string    `json:"provider_id"`
	CreatedAt  time.Time `json:"created_at"`
}
