package service

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/noah-isme/learnhub-api/internal/observability"
	"github.com/noah-isme/learnhub-api/internal/repository"
)

const (
	JobPurgeSessions  = "purge_sessions"
	JobExpirePayments = "expire_payments"

	stalePaymentAge = 24 * time.Hour
	jobTimeout      = 2 * time.Minute
)

// Scheduler runs periodic maintenance jobs on a cron schedule.
type Scheduler struct {
	cron     *cron.Cron
	sessions repository.SessionRepository
	payments PaymentService
	logger   zerolog.Logger
	now      func() time.Time
}

// NewScheduler wires the maintenance jobs. Jobs are not scheduled until Start.
func NewScheduler(sessions repository.SessionRepository, payments PaymentService, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithLocation(time.UTC)),
		sessions: sessions,
		payments: payments,
		logger:   logger.With().Str("component", "scheduler").Logger(),
		now:      time.Now,
	}
}

// Start registers every job and starts the cron loop.
func (s *Scheduler) Start() error {
	jobs := []struct {
		spec string
		name string
	}{
		{spec: "0 * * * *", name: JobPurgeSessions},
		{spec: "*/30 * * * *", name: JobExpirePayments},
	}
	for _, job := range jobs {
		name := job.name
		if _, err := s.cron.AddFunc(job.spec, func() { _ = s.Run(context.Background(), name) }); err != nil {
			return err
		}
	}

	s.cron.Start()
	s.logger.Info().Int("jobs", len(jobs)).Msg("scheduler started")
	return nil
}

// Stop halts scheduling and returns a context that is done once running jobs finish.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// Run executes one job by name, bounded by jobTimeout.
func (s *Scheduler) Run(ctx context.Context, name string) error {
	ctx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	started := s.now()
	var (
		affected int64
		err      error
	)
	switch name {
	case JobPurgeSessions:
		affected, err = s.sessions.DeleteExpired(ctx, started.UTC())
	case JobExpirePayments:
		var expired int
		expired, err = s.payments.ExpireStale(ctx, stalePaymentAge)
		affected = int64(expired)
	default:
		s.logger.Warn().Str("job", name).Msg("unknown job")
		return ErrInvalidInput
	}

	if err != nil {
		observability.JobRuns().WithLabelValues(name, "error").Inc()
		s.logger.Error().Err(err).Str("job", name).Msg("scheduled job failed")
		return err
	}

	observability.JobRuns().WithLabelValues(name, "ok").Inc()
	s.logger.Info().
		Str("job", name).
		Int64("affected", affected).
		Dur("duration", time.Since(started)).
		Msg("scheduled job finished")
	return nil
}
