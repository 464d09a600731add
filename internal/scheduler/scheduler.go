package scheduler

import (
	"context"
	"time"

	"biodata-platform/internal/logger"

	"github.com/go-co-op/gocron"
)

// Scheduler runs periodic maintenance jobs such as the index resync.
type Scheduler struct {
	scheduler *gocron.Scheduler
	ctx       context.Context
	cancel    context.CancelFunc
}

func NewScheduler() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	s := gocron.NewScheduler(time.UTC)
	s.TagsUnique()
	s.SingletonModeAll()

	return &Scheduler{
		scheduler: s,
		ctx:       ctx,
		cancel:    cancel,
	}
}

func (s *Scheduler) Start() {
	s.scheduler.StartAsync()
}

// Stop halts the scheduler and cancels the context handed to running jobs.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
	if s.cancel != nil {
		s.cancel()
	}
}

// ScheduleCron registers job under tag. The job gets a context that is
// cancelled on Stop.
func (s *Scheduler) ScheduleCron(tag, cronExpr string, job func(ctx context.Context) error) error {
	_, err := s.scheduler.Cron(cronExpr).Tag(tag).Do(s.wrap(tag, job))
	return err
}

// ScheduleInterval runs job every interval, starting one interval after Start.
func (s *Scheduler) ScheduleInterval(tag string, every time.Duration, job func(ctx context.Context) error) error {
	_, err := s.scheduler.Every(every).Tag(tag).WaitForSchedule().Do(s.wrap(tag, job))
	return err
}

// SchedulePeriodic registers job from a cron expression, or from an interval
// when cronExpr is empty. It reports false when neither is set.
func (s *Scheduler) SchedulePeriodic(tag, cronExpr string, every time.Duration, job func(ctx context.Context) error) (bool, error) {
	switch {
	case cronExpr != "":
		return true, s.ScheduleCron(tag, cronExpr, job)
	case every > 0:
		return true, s.ScheduleInterval(tag, every, job)
	default:
		return false, nil
	}
}

func (s *Scheduler) Len() int {
	return s.scheduler.Len()
}

func (s *Scheduler) wrap(tag string, job func(ctx context.Context) error) func() {
	return func() {
		start := time.Now()
		if err := job(s.ctx); err != nil {
			logger.Error("Scheduled job failed", "job", tag, "error", err, "duration", time.Since(start))
			return
		}
		logger.Info("Scheduled job finished", "job", tag, "duration", time.Since(start))
	}
}
