package service

import "github.com/unclebandit/phishsim/internal/model"

// ComputeStats counts recorded events and derives percentage rates.
// Every rate is 0 for a campaign without recipients.
func ComputeStats(results []model.Result) model.CampaignStats {
	s := model.CampaignStats{Total: len(results)}
	for _, r := range results {
		if r.OpenedAt != nil {
			s.Opened++
		}
		if r.ClickedAt != nil {
			s.Clicked++
		}
		if r.SubmittedAt != nil {
			s.Submitted++
		}
	}
	s.OpenRate = rate(s.Opened, s.Total)
	s.ClickRate = rate(s.Clicked, s.Total)
	s.SubmitRate = rate(s.Submitted, s.Total)
	return s
}

func rate(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}
