// internal/model/stats.go
package model

type CampaignStats struct {
	Total      int     `json:"total"`
	Opened     int     `json:"opened"`
	Clicked    int     `json:"clicked"`
	Submitted  int     `json:"submitted"`
	OpenRate   float64 `json:"open_rate"`
	ClickRate  float64 `json:"click_rate"`
	SubmitRate float64 `json:"submit_rate"`
}

// DispatchReport summarises one campaign send loop.
type DispatchReport struct {
	CampaignID int               `json:"campaign_id"`
	Attempted  int               `json:"attempted"`
	Sent       int               `json:"sent"`
	Failed     int               `json:"failed"`
	Failures   []DispatchFailure `json:"failures,omitempty"`
}

type DispatchFailure struct {
	Email      string `json:"email"`
	TrackingID string `json:"tracking_id"`
	Reason     string `json:"reason"`
}
