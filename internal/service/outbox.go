package service

import (
	"context"
	"time"

	"gorm.io/gorm"

	"Yatube/internal/logging"
	"Yatube/internal/metrics"
	"Yatube/internal/model"
	"Yatube/internal/pkg"
	"Yatube/internal/repository/database"
)

type Sender func(ctx context.Context, ob *model.SocialOutbox) error

type OutboxOptions struct {
	BatchSize int
	Interval  time.Duration
	MaxRetry  int
}

// OutboxRelayer ships follow events written by FollowRepository to a Sender.
type OutboxRelayer struct {
	repo      *database.OutboxRepository
	batchSize int
	interval  time.Duration
	maxRetry  int
	sender    Sender
}

func NewOutboxRelayer(db *gorm.DB, opts OutboxOptions, sender Sender) *OutboxRelayer {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 200
	}
	if opts.Interval <= 0 {
		opts.Interval = time.Second
	}
	if opts.MaxRetry <= 0 {
		opts.MaxRetry = 5
	}
	if sender == nil {
		sender = LogSender
	}
	return &OutboxRelayer{
		repo:      &database.OutboxRepository{DB: db},
		batchSize: opts.BatchSize,
		interval:  opts.Interval,
		maxRetry:  opts.MaxRetry,
		sender:    sender,
	}
}

// Run drains the outbox every interval until ctx is done.
func (r *OutboxRelayer) Run(ctx context.Context) {
	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.drainOnce(ctx)
		}
	}
}

// drainOnce relays one batch and returns how many rows were sent.
func (r *OutboxRelayer) drainOnce(ctx context.Context) int {
	rows, err := r.repo.Pending(ctx, r.batchSize, r.maxRetry)
	if err != nil {
		logging.Error().Err(err).Msg("outbox query failed")
		return 0
	}
	sent := 0
	for i := range rows {
		ob := rows[i]
		if err = r.sender(ctx, &ob); err != nil {
			metrics.OutboxRelayed.WithLabelValues(ob.EventType, "failed").Inc()
			logging.Warn().Err(err).
				Uint64("outbox_id", ob.ID).
				Str("event", ob.EventType).
				Int("retry", ob.Retry+1).
				Msg("outbox send failed")
			if err = r.repo.MarkFailed(ctx, ob.ID); err != nil {
				logging.Error().Err(err).Uint64("outbox_id", ob.ID).Msg("outbox mark failed")
			}
			continue
		}
		metrics.OutboxRelayed.WithLabelValues(ob.EventType, "sent").Inc()
		if err = r.repo.MarkSent(ctx, ob.ID); err != nil {
			logging.Error().Err(err).Uint64("outbox_id", ob.ID).Msg("outbox mark sent")
			continue
		}
		sent++
	}
	return sent
}

// LogSender logs events. Used when kafka is disabled.
func LogSender(_ context.Context, ob *model.SocialOutbox) error {
	logging.Info().
		Str("event", ob.EventType).
		Uint64("follower", ob.Follower).
		Uint64("author", ob.Author).
		RawJSON("payload", []byte(ob.Payload)).
		Msg("follow event")
	return nil
}

// KafkaSender publishes events keyed by author so one author's events stay ordered.
func KafkaSender(p *pkg.KafkaProducer) Sender {
	return func(ctx context.Context, ob *model.SocialOutbox) error {
		return p.Send(ctx, pkg.MakeKeyFromID(ob.Author), []byte(ob.Payload))
	}
}
