// internal/model/event.go
package model

import "time"

type EventKind string

const (
	EventOpen   EventKind = "open"
	EventClick  EventKind = "click"
	EventSubmit EventKind = "submit"
)

// Column returns the results column that records the event.
func (k EventKind) Column() (string, bool) {
	switch k {
	case EventOpen:
		return "opened_at", true
	case EventClick:
		return "clicked_at", true
	case EventSubmit:
		return "submitted_at", true
	}
	return "", false
}

// TrackingEvent is published once per first occurrence of an event.
type TrackingEvent struct {
	Kind       EventKind `json:"kind"`
	TrackingID string    `json:"tracking_id"`
	CampaignID int       `json:"campaign_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
	IP         string    `json:"ip,omitempty"`
	UserAgent  string    `json:"user_agent,omitempty"`
}
