// Package tasks implements the scheduled jobs of the check-in bot.
package tasks

import (
	"log/slog"
	"net/http"

	"github.com/virevo/virevo/internal/checkin"
	"github.com/virevo/virevo/internal/config"
	"github.com/virevo/virevo/internal/database"
)

// TaskDeps contains the dependencies of scheduled tasks.
type TaskDeps struct {
	Logger     *slog.Logger
	Store      database.Store
	Engine     *checkin.Engine
	Sender     checkin.Sender
	Config     *config.Config
	HTTPClient *http.Client
}
