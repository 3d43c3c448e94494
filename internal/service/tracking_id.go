package service

import "github.com/google/uuid"

// NewTrackingID returns a random version 4 UUID string (122 random bits).
// Uniqueness is enforced by the results.tracking_id constraint.
func NewTrackingID() string {
	return uuid.New().String()
}
