package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/lysyi3m/cima-comb/app/harvest"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

const (
	TriggerStartup  = "startup"
	TriggerSchedule = "schedule"
	TriggerManual   = "manual"
)

type SchedulerConfig struct {
	HarvestInterval time.Duration
	CleanupSchedule string
	Retention       time.Duration
	// HarvestOnStart enqueues a harvest as soon as Start returns.
	HarvestOnStart bool
}

// Scheduler runs a single worker so that a harvest and a retention sweep never
// write to the database at the same time.
type Scheduler struct {
	harvester  Harvester
	sweeper    Sweeper
	vacuumer   Vacuumer
	cfg        SchedulerConfig
	cron       *cron.Cron
	cronParser cron.Parser
	harvestID  cron.EntryID
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	taskQueue  chan TaskInterface
	retryDelay func(retry int) time.Duration
}

func NewScheduler(harvester Harvester, sweeper Sweeper, vacuumer Vacuumer, cfg SchedulerConfig) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	cronParser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

	return &Scheduler{
		harvester:  harvester,
		sweeper:    sweeper,
		vacuumer:   vacuumer,
		cfg:        cfg,
		cron:       cron.New(cron.WithParser(cronParser), cron.WithChain(cron.Recover(cron.DefaultLogger))),
		cronParser: cronParser,
		ctx:        ctx,
		cancel:     cancel,
		taskQueue:  make(chan TaskInterface, 16),
		retryDelay: backoff,
	}
}

func (s *Scheduler) Start() error {
	if s.cfg.HarvestInterval <= 0 {
		return fmt.Errorf("harvest interval must be positive, got %s", s.cfg.HarvestInterval)
	}

	harvestSchedule := fmt.Sprintf("@every %s", s.cfg.HarvestInterval)
	harvestID, err := s.cron.AddFunc(harvestSchedule, s.scheduleHarvest)
	if err != nil {
		return fmt.Errorf("failed to schedule harvest %q: %w", harvestSchedule, err)
	}
	s.harvestID = harvestID

	if s.cfg.CleanupSchedule != "" {
		if _, err := s.cronParser.Parse(s.cfg.CleanupSchedule); err != nil {
			return fmt.Errorf("invalid cleanup schedule %q: %w", s.cfg.CleanupSchedule, err)
		}
		if _, err := s.cron.AddFunc(s.cfg.CleanupSchedule, s.scheduleCleanup); err != nil {
			return fmt.Errorf("failed to schedule cleanup %q: %w", s.cfg.CleanupSchedule, err)
		}
	}

	s.wg.Add(1)
	go s.worker()

	if s.cfg.HarvestOnStart {
		if err := s.EnqueueTask(NewHarvestTask(TriggerStartup, s.harvester)); err != nil {
			slog.Warn("Failed to enqueue startup harvest", "error", err)
		}
	}

	s.cron.Start()

	slog.Info("Scheduler started", "harvest_interval", s.cfg.HarvestInterval.String(), "cleanup_schedule", s.cfg.CleanupSchedule)
	return nil
}

// Stop waits for running cron callbacks, cancels the in-flight task and waits
// for the worker to exit.
func (s *Scheduler) Stop() {
	cronCtx := s.cron.Stop()
	<-cronCtx.Done()

	s.cancel()
	s.wg.Wait()

	slog.Info("Scheduler stopped")
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
	}

	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

// TriggerHarvest enqueues a manual harvest. It returns
// harvest.ErrRunInProgress when a run is already active.
func (s *Scheduler) TriggerHarvest() error {
	if s.harvester.Running() {
		return harvest.ErrRunInProgress
	}
	return s.EnqueueTask(NewHarvestTask(TriggerManual, s.harvester))
}

// NextHarvest returns when the next scheduled harvest fires, or the zero time
// before Start.
func (s *Scheduler) NextHarvest() time.Time {
	if s.harvestID == 0 {
		return time.Time{}
	}
	return s.cron.Entry(s.harvestID).Next
}

func (s *Scheduler) scheduleHarvest() {
	if s.harvester.Running() {
		slog.Debug("Harvest still running, skipping scheduled run")
		return
	}
	if err := s.EnqueueTask(NewHarvestTask(TriggerSchedule, s.harvester)); err != nil {
		slog.Warn("Failed to enqueue scheduled harvest", "error", err)
	}
}

func (s *Scheduler) scheduleCleanup() {
	task := NewCleanupTask(TriggerSchedule, s.sweeper, s.vacuumer, s.cfg.Retention)
	if err := s.EnqueueTask(task); err != nil {
		slog.Warn("Failed to enqueue cleanup", "error", err)
	}
}

func (s *Scheduler) worker() {
	defer s.wg.Done()

	for {
		select {
		case task := <-s.taskQueue:
			s.executeTask(task)
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, task.GetTimeout())
	defer cancel()

	err := task.Execute(taskCtx)
	if err == nil {
		return
	}

	slog.Error("Task execution failed", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

	if !task.CanRetry() {
		slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		return
	}

	task.IncrementRetryCount()
	retryDelay := s.retryDelay(task.GetRetryCount())

	slog.Warn("Task retry scheduled", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		timer := time.NewTimer(retryDelay)
		defer timer.Stop()

		select {
		case <-s.ctx.Done():
			slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
		case <-timer.C:
			if retryErr := s.EnqueueTask(task); retryErr != nil {
				slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
			}
		}
	}()
}

func backoff(retry int) time.Duration {
	delay := time.Duration(1<<uint(retry-1)) * time.Second
	if delay > 30*time.Second {
		delay = 30 * time.Second
	}
	return delay
}
