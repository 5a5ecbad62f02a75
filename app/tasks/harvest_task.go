package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lysyi3m/cima-comb/app/harvest"
)

const harvestTimeout = 2 * time.Hour

type HarvestTask struct {
	Task
	harvester Harvester
}

// NewHarvestTask never retries: the only error a run returns is an unreachable
// store, which aborts the run until the next trigger.
func NewHarvestTask(trigger string, harvester Harvester) *HarvestTask {
	return &HarvestTask{
		Task:      NewTask(TaskTypeHarvest, trigger, 0, harvestTimeout),
		harvester: harvester,
	}
}

func (t *HarvestTask) Execute(ctx context.Context) error {
	slog.Debug("Harvest task started", "id", t.ID, "trigger", t.Trigger)

	items, err := t.harvester.Run(ctx)
	if errors.Is(err, harvest.ErrRunInProgress) {
		slog.Info("Harvest already running, skipping", "id", t.ID, "trigger", t.Trigger)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to run harvest: %w", err)
	}

	slog.Info("Harvest task completed", "id", t.ID, "trigger", t.Trigger, "items", len(items), "duration", t.GetDuration().String())
	return nil
}
