package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/unclebandit/phishsim/internal/metrics"
	"github.com/unclebandit/phishsim/internal/model"
	"github.com/unclebandit/phishsim/internal/queue"
	"github.com/unclebandit/phishsim/internal/repository"
)

// RequestMeta describes the client that triggered an event.
type RequestMeta struct {
	IP        string
	UserAgent string
}

// TrackingService records first occurrences of open, click and submit events.
type TrackingService struct {
	ResultRepo repository.ResultRepositoryInterface
	Events     queue.Publisher // optional
	Topic      string          // defaults to queue.TopicTrackingEvents
	Now        func() time.Time
}

func (s *TrackingService) RecordOpen(ctx context.Context, trackingID string, meta RequestMeta) (bool, error) {
	return s.Record(ctx, model.EventOpen, trackingID, meta)
}

func (s *TrackingService) RecordClick(ctx context.Context, trackingID string, meta RequestMeta) (bool, error) {
	return s.Record(ctx, model.EventClick, trackingID, meta)
}

func (s *TrackingService) RecordSubmit(ctx context.Context, trackingID string, meta RequestMeta) (bool, error) {
	return s.Record(ctx, model.EventSubmit, trackingID, meta)
}

// Record returns true only for the call that set the timestamp. Unknown
// tokens and repeats return false without error.
func (s *TrackingService) Record(ctx context.Context, kind model.EventKind, trackingID string, meta RequestMeta) (bool, error) {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	at := now().UTC()

	campaignID, recorded, err := s.ResultRepo.MarkEvent(ctx, kind, trackingID, at)
	if err != nil || !recorded {
		return false, err
	}

	metrics.TrackingEvents.WithLabelValues(string(kind)).Inc()

	if s.Events != nil {
		evt := model.TrackingEvent{
			Kind:       kind,
			TrackingID: trackingID,
			CampaignID: campaignID,
			OccurredAt: at,
			IP:         meta.IP,
			UserAgent:  meta.UserAgent,
		}
		topic := s.Topic
		if topic == "" {
			topic = queue.TopicTrackingEvents
		}
		if err := s.Events.Publish(ctx, topic, evt); err != nil {
			log.Warn().Err(err).Str("kind", string(kind)).Int("campaign_id", campaignID).Msg("failed to publish tracking event")
		}
	}
	return true, nil
}
