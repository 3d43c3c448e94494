// internal/service/campaign_service.go
package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/unclebandit/phishsim/internal/cache"
	appErrors "github.com/unclebandit/phishsim/internal/errors"
	"github.com/unclebandit/phishsim/internal/logger"
	"github.com/unclebandit/phishsim/internal/mailer"
	"github.com/unclebandit/phishsim/internal/metrics"
	"github.com/unclebandit/phishsim/internal/model"
	"github.com/unclebandit/phishsim/internal/repository"
)

type CampaignService struct {
	CampaignRepo  repository.CampaignRepositoryInterface
	ResultRepo    repository.ResultRepositoryInterface
	Composer      *Composer
	Mailer        mailer.Mailer
	Reports       cache.ReportStore // optional
	NewTrackingID func() string
}

type CreateCampaignInput struct {
	Name         string
	TemplateName string
	Recipients   []string
	// RawRecipients is stored verbatim as target_emails; when empty the
	// recipients are joined with ",".
	RawRecipients string
}

// CampaignDetails is a campaign with its stats and every result row.
type CampaignDetails struct {
	model.Campaign
	Stats      model.CampaignStats   `json:"stats"`
	Results    []model.Result        `json:"results"`
	LastReport *model.DispatchReport `json:"last_report,omitempty"`
}

// ParseRecipients splits a comma separated list, trimming each entry and
// dropping empty ones. Addresses are not validated.
func ParseRecipients(raw string) []string {
	recipients := []string{}
	for _, part := range strings.Split(raw, ",") {
		if email := strings.TrimSpace(part); email != "" {
			recipients = append(recipients, email)
		}
	}
	return recipients
}

// CreateCampaign stores the campaign and one result row per recipient in one
// transaction, then sends one email per recipient in input order. Send
// failures are counted in the report, never returned as an error.
func (s *CampaignService) CreateCampaign(ctx context.Context, in CreateCampaignInput) (*model.DispatchReport, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, appErrors.NewValidationError("name", "is required")
	}
	templateName := strings.TrimSpace(in.TemplateName)
	if templateName == "" {
		return nil, appErrors.NewValidationError("template", "is required")
	}

	raw := in.RawRecipients
	if raw == "" {
		raw = strings.Join(in.Recipients, ",")
	}

	nextID := s.NewTrackingID
	if nextID == nil {
		nextID = NewTrackingID
	}

	c := &model.Campaign{Name: name, TemplateName: templateName, TargetEmails: raw}
	results, err := s.CampaignRepo.CreateWithResults(ctx, c, in.Recipients, nextID)
	if err != nil {
		return nil, err
	}
	log.Info().Int("campaign_id", c.ID).Str("template", templateName).Int("recipients", len(results)).Msg("campaign created")

	// Rows are committed, so every recipient gets its send attempt even if
	// the caller goes away. The transport timeout bounds each send.
	sendCtx := context.WithoutCancel(ctx)
	report := s.dispatch(sendCtx, c, results)

	if s.Reports != nil {
		if err := s.Reports.Save(sendCtx, report); err != nil {
			log.Warn().Err(err).Int("campaign_id", c.ID).Msg("failed to store dispatch report")
		}
	}
	return report, nil
}

func (s *CampaignService) dispatch(ctx context.Context, c *model.Campaign, results []model.Result) *model.DispatchReport {
	report := &model.DispatchReport{CampaignID: c.ID, Failures: []model.DispatchFailure{}}

	for _, res := range results {
		report.Attempted++
		redacted := logger.RedactEmail(res.TargetEmail)

		err := s.sendOne(ctx, c, res)
		if err != nil {
			report.Failed++
			report.Failures = append(report.Failures, model.DispatchFailure{
				Email:      res.TargetEmail,
				TrackingID: res.TrackingID,
				Reason:     err.Error(),
			})
			metrics.EmailsSent.WithLabelValues("failed").Inc()
			log.Warn().Err(err).Int("campaign_id", c.ID).Str("recipient", redacted).Msg("⚠️ failed to send email")
			continue
		}

		report.Sent++
		metrics.EmailsSent.WithLabelValues("sent").Inc()
		log.Debug().Int("campaign_id", c.ID).Str("recipient", redacted).Msg("email sent")
	}

	log.Info().
		Int("campaign_id", c.ID).
		Int("attempted", report.Attempted).
		Int("sent", report.Sent).
		Int("failed", report.Failed).
		Msg("campaign dispatch finished")
	return report
}

func (s *CampaignService) sendOne(ctx context.Context, c *model.Campaign, res model.Result) error {
	msg, err := s.Composer.Compose(c.ID, c.TemplateName, res.TrackingID, res.TargetEmail)
	if err != nil {
		return err
	}
	return s.Mailer.Send(ctx, msg)
}

// Dashboard lists campaigns newest first with stats recomputed from every
// result row.
func (s *CampaignService) Dashboard(ctx context.Context) ([]model.CampaignWithStats, error) {
	campaigns, err := s.CampaignRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]model.CampaignWithStats, 0, len(campaigns))
	for _, c := range campaigns {
		results, err := s.ResultRepo.ListByCampaign(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		rows = append(rows, model.CampaignWithStats{
			Campaign:   *c,
			Stats:      ComputeStats(results),
			LastReport: s.lastReport(ctx, c.ID),
		})
	}
	return rows, nil
}

func (s *CampaignService) GetCampaignDetailsWithStats(ctx context.Context, campaignID int) (*CampaignDetails, error) {
	campaign, err := s.CampaignRepo.GetByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	results, err := s.ResultRepo.ListByCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	return &CampaignDetails{
		Campaign:   *campaign,
		Stats:      ComputeStats(results),
		Results:    results,
		LastReport: s.lastReport(ctx, campaignID),
	}, nil
}

// lastReport is best effort; a cache failure never breaks the dashboard.
func (s *CampaignService) lastReport(ctx context.Context, campaignID int) *model.DispatchReport {
	if s.Reports == nil {
		return nil
	}
	report, ok, err := s.Reports.Get(ctx, campaignID)
	if err != nil {
		log.Warn().Err(err).Int("campaign_id", campaignID).Msg("failed to load dispatch report")
		return nil
	}
	if !ok {
		return nil
	}
	return report
}
