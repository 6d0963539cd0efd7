package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"

	"github.com/atelierlab/devisio/internal/clock"
	financedomain "github.com/atelierlab/devisio/internal/finance/domain"
	obscontext "github.com/atelierlab/devisio/internal/observability/context"
	obslogger "github.com/atelierlab/devisio/internal/observability/logger"
	obsmetrics "github.com/atelierlab/devisio/internal/observability/metrics"
	quotedomain "github.com/atelierlab/devisio/internal/quote/domain"

	"go.uber.org/fx"
)

var ErrInvalidConfig = errors.New("scheduler_invalid_config")

type Params struct {
	fx.In

	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	QuoteSvc   quotedomain.Service
	FinanceSvc financedomain.Service
	Config     Config `optional:"true"`
}

// Scheduler drives the periodic maintenance jobs: sweeping sent quotes
// past their validity window and snapshotting project finances.
type Scheduler struct {
	log        *zap.Logger
	cfg        Config
	genID      *snowflake.Node
	clock      clock.Clock
	quoteSvc   quotedomain.Service
	financeSvc financedomain.Service
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.GenID == nil || p.Clock == nil || p.QuoteSvc == nil || p.FinanceSvc == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		log:        p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:        p.Config.withDefaults(),
		genID:      p.GenID,
		clock:      p.Clock,
		quoteSvc:   p.QuoteSvc,
		financeSvc: p.FinanceSvc,
	}, nil
}

func (s *Scheduler) runJob(
	parent context.Context,
	name string,
	timeout time.Duration,
	fn func(ctx context.Context) (int, error),
) error {
	start := s.clock.Now()
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	ctx = obscontext.WithActor(ctx, "system", "scheduler")
	runID := s.genID.Generate().String()
	log := s.logger(ctx).With(
		zap.String("job", name),
		zap.String("run_id", runID),
	)
	schedMetrics := obsmetrics.Scheduler()
	schedMetrics.IncJobRun(name)
	log.Info("scheduler.job.start")

	processed, err := fn(ctx)
	schedMetrics.ObserveJobDuration(name, time.Since(start))
	schedMetrics.AddProcessed(name, processed)
	log.Info("scheduler.job.finish",
		zap.Int("processed_count", processed),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	if err == nil {
		return nil
	}

	schedMetrics.IncJobError(name)
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		// Soft timeout: the next tick picks up where this run stopped.
		log.Warn("job timed out",
			zap.Duration("timeout", timeout),
			zap.Error(err),
		)
		return nil
	}

	return fmt.Errorf("%s: %w", name, err)
}

func (s *Scheduler) RunOnce(parent context.Context) error {
	var err error

	jobs := []struct {
		Name    string
		Enabled bool
		Run     func(context.Context) error
	}{
		{"expire_quotes", s.isJobEnabled("expire_quotes"), func(ctx context.Context) error {
			return s.runJob(ctx, "expire_quotes", 30*time.Second, s.ExpireQuotesJob)
		}},
		{"finance_snapshots", s.isJobEnabled("finance_snapshots"), func(ctx context.Context) error {
			return s.runJob(ctx, "finance_snapshots", 5*time.Minute, s.FinanceSnapshotsJob)
		}},
	}

	for _, job := range jobs {
		if job.Enabled {
			err = errors.Join(err, job.Run(parent))
		}
	}

	return err
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) isJobEnabled(jobName string) bool {
	if len(s.cfg.EnabledJobs) == 0 {
		return true
	}
	for _, enabled := range s.cfg.EnabledJobs {
		if strings.EqualFold(enabled, jobName) {
			return true
		}
	}
	return false
}

// ExpireQuotesJob flips sent quotes whose validity window has lapsed.
// Loops until a sweep comes back empty so a backlog drains in one run.
func (s *Scheduler) ExpireQuotesJob(ctx context.Context) (int, error) {
	total := 0
	for {
		if ctx.Err() != nil {
			return total, ctx.Err()
		}
		expired, err := s.quoteSvc.ExpireDue(ctx, s.cfg.QuoteBatchSize)
		total += expired
		if err != nil {
			return total, err
		}
		if expired == 0 {
			return total, nil
		}
	}
}

// FinanceSnapshotsJob records a budget snapshot for every signed contract.
func (s *Scheduler) FinanceSnapshotsJob(ctx context.Context) (int, error) {
	return s.financeSvc.SnapshotAll(ctx, s.cfg.SnapshotBatchSize)
}

func (s *Scheduler) logger(ctx context.Context) *zap.Logger {
	return obslogger.WithContext(ctx, s.log)
}
