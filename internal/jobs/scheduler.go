package jobs

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"skylog/api/internal/repository"
)

const importStream = "skylog:import"

type Scheduler struct {
	cron     *cron.Cron
	queue    *redis.Client
	sessions *repository.SessionRepository
	tokens   *repository.TokenRepository
	log      zerolog.Logger
}

func NewScheduler(queue *redis.Client, sessions *repository.SessionRepository, tokens *repository.TokenRepository, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithSeconds()),
		queue:    queue,
		sessions: sessions,
		tokens:   tokens,
		log:      log,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("0 0 3 * * *", s.purgeExpired); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("0 0 * * * *", s.enqueueImportSweep); err != nil { // hourly
		return err
	}

	s.cron.Start()
	return nil
}

// Stop halts scheduling and waits briefly for in-flight jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		s.log.Warn().Msg("scheduler jobs still running at shutdown")
	}
}

// purgeExpired drops expired sessions and spent or expired one-time
// tokens. Validation already refuses them; this keeps the tables small.
func (s *Scheduler) purgeExpired() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	now := time.Now()
	if n, err := s.sessions.DeleteExpired(ctx, now); err != nil {
		s.log.Error().Err(err).Msg("purge expired sessions failed")
	} else if n > 0 {
		s.log.Info().Int64("count", n).Msg("purged expired sessions")
	}

	if n, err := s.tokens.DeleteExpired(ctx, now); err != nil {
		s.log.Error().Err(err).Msg("purge expired tokens failed")
	} else if n > 0 {
		s.log.Info().Int64("count", n).Msg("purged expired tokens")
	}
}

func (s *Scheduler) enqueueImportSweep() {
	if s.queue == nil {
		return
	}
	_, err := s.queue.XAdd(context.Background(), &redis.XAddArgs{
		Stream: importStream,
		Values: map[string]any{"type": "import_sweep"},
	}).Result()
	if err != nil {
		s.log.Error().Err(err).Msg("enqueue import sweep failed")
	}
}
