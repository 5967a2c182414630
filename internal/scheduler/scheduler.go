// Package scheduler runs the expiry sweeper on a cron schedule.
package scheduler

import (
	"context"
	"fmt"

	"github.com/lshigami/skillcheck/config"
	"github.com/lshigami/skillcheck/internal/service"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Sweeper is the job the scheduler runs.
type Sweeper interface {
	Sweep(ctx context.Context) service.SweepReport
}

// Scheduler owns the cron runner. An overlapping tick is skipped while the previous sweep runs.
type Scheduler struct {
	cron     *cron.Cron
	sweeper  Sweeper
	schedule string
	ctx      context.Context
	cancel   context.CancelFunc
}

func New(sweeper Sweeper, cfg *config.Config) *Scheduler {
	logger := cronLogger{}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		sweeper:  sweeper,
		schedule: cfg.Sweeper.Schedule,
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, func() { s.sweeper.Sweep(s.ctx) }); err != nil {
		return fmt.Errorf("schedule sweeper %q: %w", s.schedule, err)
	}
	s.cron.Start()
	log.Info().Str("schedule", s.schedule).Msg("Expiry sweeper scheduled")
	return nil
}

// Stop cancels an in-flight sweep and waits for it to return.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cancel()
	done := s.cron.Stop()
	select {
	case <-done.Done():
		log.Info().Msg("Expiry sweeper stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// cronLogger adapts cron's logr-style logger to zerolog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	log.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	log.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
