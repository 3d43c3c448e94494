// internal/model/result.go
package model

import "time"

// Result is the per-recipient outcome of a campaign. The three event
// timestamps move from nil to a value at most once.
type Result struct {
	ID          int        `db:"id" json:"id"`
	CampaignID  int        `db:"campaign_id" json:"campaign_id"`
	TrackingID  string     `db:"tracking_id" json:"tracking_id"`
	TargetEmail string     `db:"target_email" json:"target_email"`
	SentAt      time.Time  `db:"sent_at" json:"sent_at"`
	OpenedAt    *time.Time `db:"opened_at" json:"opened_at,omitempty"`
	ClickedAt   *time.Time `db:"clicked_at" json:"clicked_at,omitempty"`
	SubmittedAt *time.Time `db:"submitted_at" json:"submitted_at,omitempty"`
}
