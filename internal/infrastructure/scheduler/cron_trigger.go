package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DailySchedule is a parsed daily "M H * * *" cron expression
type DailySchedule struct {
	Hour   int
	Minute int
}

// ParseDailyCron parses a cron expression of the daily form "M H * * *".
// Anything more elaborate is rejected; the maintenance jobs only ever run
// once a day.
func ParseDailyCron(spec string) (DailySchedule, error) {
	fields := strings.Fields(spec)
	if len(fields) != 5 || fields[2] != "*" || fields[3] != "*" || fields[4] != "*" {
		return DailySchedule{}, fmt.Errorf("%w: %q", ErrInvalidCronSchedule, spec)
	}

	minute, err := strconv.Atoi(fields[0])
	if err != nil || minute < 0 || minute > 59 {
		return DailySchedule{}, fmt.Errorf("%w: %q", ErrInvalidCronSchedule, spec)
	}
	hour, err := strconv.Atoi(fields[1])
	if err != nil || hour < 0 || hour > 23 {
		return DailySchedule{}, fmt.Errorf("%w: %q", ErrInvalidCronSchedule, spec)
	}

	return DailySchedule{Hour: hour, Minute: minute}, nil
}

// Matches reports whether the schedule fires at the given time
func (s DailySchedule) Matches(t time.Time) bool {
	return t.Hour() == s.Hour && t.Minute() == s.Minute
}

// CronTriggerConfig holds configuration for the cron trigger
type CronTriggerConfig struct {
	// OverdueSchedule is when the daily overdue sweep runs
	OverdueSchedule DailySchedule
	// CorrectionSchedule is when the daily correction run fires
	CorrectionSchedule DailySchedule
	// CheckInterval is how often to check if it's time to run
	CheckInterval time.Duration
}

// DefaultCronTriggerConfig returns default cron trigger configuration
func DefaultCronTriggerConfig() CronTriggerConfig {
	return CronTriggerConfig{
		OverdueSchedule:    DailySchedule{Hour: 1},
		CorrectionSchedule: DailySchedule{Hour: 2},
		CheckInterval:      time.Minute,
	}
}

// CronTrigger submits the daily maintenance jobs at their scheduled times
type CronTrigger struct {
	config    CronTriggerConfig
	scheduler *Scheduler
	logger    *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	lastRun   map[JobType]string // job type -> date last triggered
}

// NewCronTrigger creates a new cron trigger
func NewCronTrigger(config CronTriggerConfig, scheduler *Scheduler, logger *zap.Logger) *CronTrigger {
	return &CronTrigger{
		config:    config,
		scheduler: scheduler,
		logger:    logger,
		lastRun:   make(map[JobType]string),
	}
}

// Start starts the cron trigger
func (c *CronTrigger) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = true
	c.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.wg.Add(1)
	go c.runLoop(ctx)

	c.logger.Info("Cron trigger started",
		zap.Int("overdue_hour", c.config.OverdueSchedule.Hour),
		zap.Int("correction_hour", c.config.CorrectionSchedule.Hour),
		zap.Duration("check_interval", c.config.CheckInterval),
	)

	return nil
}

// Stop stops the cron trigger
func (c *CronTrigger) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = false
	c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.logger.Info("Cron trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// runLoop checks periodically if it's time to run a scheduled job
func (c *CronTrigger) runLoop(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := time.Now()
			c.checkAndTrigger(JobTypeOverdueSweep, c.config.OverdueSchedule, now)
			c.checkAndTrigger(JobTypeCorrectionRun, c.config.CorrectionSchedule, now)
		}
	}
}

// checkAndTrigger submits a job when its schedule fires and it has not
// already run today
func (c *CronTrigger) checkAndTrigger(jobType JobType, schedule DailySchedule, now time.Time) {
	currentDate := now.Format("2006-01-02")

	c.mu.Lock()
	alreadyRan := c.lastRun[jobType] == currentDate
	c.mu.Unlock()

	if alreadyRan || !schedule.Matches(now) {
		return
	}

	c.mu.Lock()
	c.lastRun[jobType] = currentDate
	c.mu.Unlock()

	c.logger.Info("Triggering scheduled job", zap.String("job_type", string(jobType)))
	if err := c.scheduler.ScheduleJob(jobType, now); err != nil {
		c.logger.Error("Failed to schedule job",
			zap.String("job_type", string(jobType)),
			zap.Error(err),
		)
	}
}

// TriggerManualRun allows manual triggering of a maintenance job
func (c *CronTrigger) TriggerManualRun(ctx context.Context, jobType JobType, reference time.Time) error {
	switch jobType {
	case JobTypeOverdueSweep, JobTypeCorrectionRun:
		return c.scheduler.ScheduleJob(jobType, reference)
	default:
		return fmt.Errorf("%w: %q", ErrInvalidJobType, jobType)
	}
}
