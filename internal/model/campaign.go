// internal/model/campaign.go
package model

import "time"

type Campaign struct {
	ID           int       `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	TemplateName string    `db:"template_name" json:"template_name"`
	TargetEmails string    `db:"target_emails" json:"target_emails"` // raw list as submitted
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// CampaignWithStats is one dashboard row.
type CampaignWithStats struct {
	Campaign
	Stats      CampaignStats   `json:"stats"`
	LastReport *DispatchReport `json:"last_report,omitempty"`
}
