package service

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/unclebandit/phishsim/internal/model"
)

// EventSink stores or forwards a delivered tracking event.
type EventSink interface {
	Record(ctx context.Context, evt model.TrackingEvent) error
}

// EventJob is one queued event. Done, when set, receives the sink's result
// so the transport can ack or requeue.
type EventJob struct {
	Event model.TrackingEvent
	Done  func(err error)
}

// Worker processes tracking event jobs
type Worker struct {
	Sink    EventSink
	JobChan <-chan EventJob
}

// Constructor
func NewWorker(sink EventSink, jobChan <-chan EventJob) *Worker {
	return &Worker{
		Sink:    sink,
		JobChan: jobChan,
	}
}

// Start consumes jobs until the channel closes or ctx is done
func (w *Worker) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-w.JobChan:
			if !ok {
				return
			}
			err := w.Sink.Record(ctx, job.Event)
			if err != nil {
				log.Error().Err(err).Str("kind", string(job.Event.Kind)).Msg("failed to record tracking event")
			}
			if job.Done != nil {
				job.Done(err)
			}
		}
	}
}

// AuditLogSink writes one structured log line per event.
type AuditLogSink struct{}

func (AuditLogSink) Record(_ context.Context, evt model.TrackingEvent) error {
	log.Info().
		Str("audit", "tracking_event").
		Str("kind", string(evt.Kind)).
		Int("campaign_id", evt.CampaignID).
		Str("tracking_id", evt.TrackingID).
		Time("occurred_at", evt.OccurredAt).
		Str("ip", evt.IP).
		Str("user_agent", evt.UserAgent).
		Msg("recipient interaction")
	return nil
}
