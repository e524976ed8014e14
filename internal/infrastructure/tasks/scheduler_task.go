// Package tasks wires the Scheduler's periodic tick (spec §4.7) through
// hibiken/asynq's cron-style periodic task registration, layered on top
// of the same Redis instance the posting queue uses.
package tasks

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
)

// TypeSchedulerTick is the asynq task type the periodic scheduler entry
// enqueues and the scheduler worker handles.
const TypeSchedulerTick = "scheduler:tick"

// NewSchedulerTickTask builds the (empty-payload) periodic tick task.
func NewSchedulerTickTask() *asynq.Task {
	return asynq.NewTask(TypeSchedulerTick, nil)
}

// RegisterPeriodicTick registers the ~1-minute cron entry (spec §4.7)
// with an asynq.Scheduler and returns the entry id, for later removal if
// the process needs to stop scheduling ticks without disconnecting.
func RegisterPeriodicTick(scheduler *asynq.Scheduler, everySeconds int) (string, error) {
	if everySeconds <= 0 {
		everySeconds = 60
	}
	spec := fmt.Sprintf("@every %ds", everySeconds)
	entryID, err := scheduler.Register(spec, NewSchedulerTickTask())
	if err != nil {
		return "", fmt.Errorf("tasks: register scheduler tick: %w", err)
	}
	return entryID, nil
}

// TickHandler adapts a plain tick function (the application layer's
// scheduler.Tick) into an asynq.Handler.
type TickHandler struct {
	Tick func(ctx context.Context) error
}

func (h *TickHandler) ProcessTask(ctx context.Context, _ *asynq.Task) error {
	return h.Tick(ctx)
}
