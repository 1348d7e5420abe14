package tasks

import (
	"context"
	"errors"
	"fmt"
)

// newDailyCheckinTask sends every enrolled user an opening question, plus a
// weekend question on Saturday and Sunday, and records the opening question
// as unanswered for today. A failure for one user does not stop the others.
func newDailyCheckinTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", DailyCheckin)

	return func(ctx context.Context) error {
		users, err := deps.Store.ListUsers(ctx)
		if err != nil {
			return fmt.Errorf("failed to list users: %w", err)
		}

		phrases := deps.Engine.Phrases()
		today := deps.Engine.Today()
		date := deps.Engine.TodayDate()

		var errs []error
		sent := 0
		for _, user := range users {
			if ctx.Err() != nil {
				errs = append(errs, ctx.Err())
				break
			}
			userLog := log.With("user_id", user.UserID)

			question := phrases.Opener()
			if err := deps.Sender.Send(ctx, user.ChatID, question); err != nil {
				userLog.WarnContext(ctx, "Failed to send opening question", "error", err)
				errs = append(errs, fmt.Errorf("user %d: %w", user.UserID, err))
				continue
			}
			if weekend := phrases.WeekendFollowUp(today); weekend != "" {
				if err := deps.Sender.Send(ctx, user.ChatID, weekend); err != nil {
					userLog.WarnContext(ctx, "Failed to send weekend question", "error", err)
				}
			}
			if _, err := deps.Store.SaveResponse(ctx, user.UserID, date, question, "", today); err != nil {
				userLog.ErrorContext(ctx, "Failed to record opening question", "error", err)
				errs = append(errs, fmt.Errorf("user %d: %w", user.UserID, err))
				continue
			}
			sent++
		}

		log.InfoContext(ctx, "Daily check-in sent", "users", len(users), "sent", sent, "date", date)
		return errors.Join(errs...)
	}
}
