package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/streadway/amqp"

	"github.com/unclebandit/phishsim/internal/config"
	"github.com/unclebandit/phishsim/internal/logger"
	"github.com/unclebandit/phishsim/internal/model"
	"github.com/unclebandit/phishsim/internal/queue"
	"github.com/unclebandit/phishsim/internal/service"
)

func main() {
	_ = godotenv.Load()

	// The worker only talks to RabbitMQ.
	cfg, err := config.LoadAll(config.WithoutDatabase(), config.WithAMQP())
	if err != nil {
		log.Fatal().Err(err).Msg("❌ invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logger.Init(ctx, cfg.Log.Level, cfg.Log.Pretty)

	// Connect to RabbitMQ
	conn, err := amqp.Dial(cfg.AMQP.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open a channel")
	}
	defer ch.Close()

	q, err := queue.DeclareQueue(ch, cfg.AMQP.Queue)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to declare queue")
	}

	msgs, err := ch.Consume(
		q.Name,
		"",
		false, // autoAck = false for reliability
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to register consumer")
	}

	jobs := make(chan service.EventJob)
	worker := service.NewWorker(service.AuditLogSink{}, jobs)
	done := make(chan struct{})
	go func() {
		defer close(done)
		worker.Start(ctx)
	}()

	log.Info().Str("queue", q.Name).Msg("Worker running, waiting for tracking events...")
	consume(ctx, msgs, jobs)
	close(jobs)
	<-done
	log.Info().Msg("worker stopped")
}

// consume turns deliveries into jobs until ctx is done or the channel closes.
func consume(ctx context.Context, msgs <-chan amqp.Delivery, jobs chan<- service.EventJob) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-msgs:
			if !ok {
				return
			}
			job, err := toJob(d)
			if err != nil {
				log.Warn().Err(err).Msg("invalid tracking event, dropping")
				_ = d.Ack(false)
				continue
			}
			select {
			case jobs <- job:
			case <-ctx.Done():
				_ = d.Nack(false, true)
				return
			}
		}
	}
}

// settler is the part of amqp.Delivery used to settle a message.
type settler interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func toJob(d amqp.Delivery) (service.EventJob, error) {
	evt, err := parseDelivery(d.Body)
	if err != nil {
		return service.EventJob{}, err
	}
	return service.EventJob{Event: evt, Done: settle(d, d.Redelivered)}, nil
}

// settle acks on success. A failed event is requeued once, then dropped.
func settle(ack settler, redelivered bool) func(error) {
	return func(err error) {
		if err == nil {
			_ = ack.Ack(false)
			return
		}
		_ = ack.Nack(false, !redelivered)
	}
}

func parseDelivery(body []byte) (model.TrackingEvent, error) {
	var evt model.TrackingEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		return evt, fmt.Errorf("decode tracking event: %w", err)
	}
	if _, ok := evt.Kind.Column(); !ok {
		return evt, fmt.Errorf("unknown event kind %q", evt.Kind)
	}
	if evt.TrackingID == "" {
		return evt, fmt.Errorf("tracking event without tracking id")
	}
	return evt, nil
}
