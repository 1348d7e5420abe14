package tasks

import (
	"context"
)

// ScheduledTaskFunc is the signature of every scheduled task.
// The context provided by the scheduler should be respected for cancellation.
type ScheduledTaskFunc func(ctx context.Context) error

// Task names, matching the keys of the scheduler.tasks config section.
const (
	DailyCheckin   = "daily_checkin"
	MissedCheckin  = "missed_checkin"
	SQLMaintenance = "sql_maintenance"
	KeepAlive      = "keep_alive"
)

// RegisterAllTasks returns all scheduled tasks keyed by name.
func RegisterAllTasks(deps TaskDeps) map[string]ScheduledTaskFunc {
	tasks := map[string]ScheduledTaskFunc{
		DailyCheckin:   newDailyCheckinTask(deps),
		MissedCheckin:  newMissedCheckinTask(deps),
		SQLMaintenance: newSQLMaintenanceTask(deps),
		KeepAlive:      newKeepAliveTask(deps),
	}

	deps.Logger.Info("Initialized scheduled tasks", "count", len(tasks))
	return tasks
}
