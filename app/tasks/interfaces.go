package tasks

import (
	"context"
	"time"

	"github.com/lysyi3m/cima-comb/app/database"
)

// TaskSchedulerInterface is what the main application and the API use to
// drive background work.
//
//	scheduler := NewScheduler(pipeline, itemRepo, db, schedulerCfg)
//	if err := scheduler.Start(); err != nil { ... }
//	defer scheduler.Stop()
//	scheduler.TriggerHarvest()
//	next := scheduler.NextHarvest()
type TaskSchedulerInterface interface {
	Start() error
	Stop()
	EnqueueTask(task TaskInterface) error
	TriggerHarvest() error
	NextHarvest() time.Time
}

type Harvester interface {
	Run(ctx context.Context) ([]database.Item, error)
	Running() bool
}

type Sweeper interface {
	DeleteStaleItems(ctx context.Context, before time.Time) (int64, error)
}

type Vacuumer interface {
	Vacuum(ctx context.Context) error
}
