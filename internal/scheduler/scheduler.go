package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const DefaultSpec = "0 21 * * *"

// Scheduler runs the daily report job on a cron spec in UTC.
type Scheduler struct {
	cron       *cron.Cron
	spec       string
	log        *zap.Logger
	ctx        context.Context
	cancel     context.CancelFunc
	reportFunc func(ctx context.Context) error
}

// New returns a scheduler for spec. An empty spec means DefaultSpec.
func New(spec string, log *zap.Logger) *Scheduler {
	if spec == "" {
		spec = DefaultSpec
	}
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(time.UTC)),
		spec:   spec,
		log:    log,
		ctx:    ctx,
		cancel: cancel,
	}
}

func (s *Scheduler) SetReportFunction(f func(ctx context.Context) error) {
	s.reportFunc = f
}

// Start registers the report job and starts the cron loop. Without a
// report function it logs and does nothing.
func (s *Scheduler) Start() error {
	if s.reportFunc == nil {
		s.log.Warn("report function not set, scheduler idle")
		return nil
	}
	if _, err := s.cron.AddFunc(s.spec, s.runReport); err != nil {
		return fmt.Errorf("scheduler: bad report schedule %q: %w", s.spec, err)
	}
	s.cron.Start()
	s.log.Info("scheduler started", zap.String("spec", s.spec), zap.String("tz", "UTC"))
	return nil
}

func (s *Scheduler) runReport() {
	s.log.Info("daily report triggered")
	if err := s.reportFunc(s.ctx); err != nil {
		s.log.Error("daily report failed", zap.Error(err))
	}
}

// Stop waits for a running job, then cancels the job context.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.log.Info("scheduler stopped")
}

func (s *Scheduler) IsRunning() bool {
	return s.cron != nil && len(s.cron.Entries()) > 0
}
