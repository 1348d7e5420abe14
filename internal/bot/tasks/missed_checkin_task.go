package tasks

import (
	"context"
	"errors"
	"fmt"
)

// newMissedCheckinTask marks today's unanswered check-ins as missed and
// tells the users. The missed record counts as an answer, so running the
// task twice on the same day marks each user once.
func newMissedCheckinTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", MissedCheckin)

	return func(ctx context.Context) error {
		date := deps.Engine.TodayDate()
		users, err := deps.Store.ListUsersWithoutAnswer(ctx, date)
		if err != nil {
			return fmt.Errorf("failed to list users without answer: %w", err)
		}

		checkinCfg := deps.Config.Checkin
		notice := deps.Config.Messages.MissedNotice

		var errs []error
		for _, user := range users {
			if ctx.Err() != nil {
				errs = append(errs, ctx.Err())
				break
			}
			userLog := log.With("user_id", user.UserID)

			_, err := deps.Store.SaveResponse(ctx, user.UserID, date, checkinCfg.MissedQuestion, checkinCfg.MissedAnswer, deps.Engine.Today())
			if err != nil {
				userLog.ErrorContext(ctx, "Failed to record missed check-in", "error", err)
				errs = append(errs, fmt.Errorf("user %d: %w", user.UserID, err))
				continue
			}
			if err := deps.Sender.Send(ctx, user.ChatID, notice); err != nil {
				userLog.WarnContext(ctx, "Failed to send missed check-in notice", "error", err)
				errs = append(errs, fmt.Errorf("user %d: %w", user.UserID, err))
			}
		}

		log.InfoContext(ctx, "Missed check-ins recorded", "users", len(users), "date", date)
		return errors.Join(errs...)
	}
}
