package tasks

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/simklx/internal/models"
	"github.com/desertthunder/simklx/internal/services"
	"github.com/desertthunder/simklx/internal/shared"
)

const (
	DefaultSettleDelay    = 5 * time.Second
	DefaultWatchlistLabel = "plantowatch"
)

// Notifier surfaces a pairing code to the user.
type Notifier func(code *models.DeviceCode)

// Confirmer blocks until the user answers prompt.
//
// Returning false declines; an error aborts the operation.
type Confirmer func(ctx context.Context, prompt string) (bool, error)

// EngineOptions configures a [SyncEngine]. Zero values fall back to defaults.
type EngineOptions struct {
	Logger         *log.Logger
	Notify         Notifier
	Confirm        Confirmer
	SettleDelay    time.Duration
	WatchlistLabel string

	Now   func() time.Time
	Sleep func(ctx context.Context, d time.Duration) error
}

// SyncEngine imports parsed records into a history service and reconciles the result.
//
// Stages run sequentially; the only suspension points are the authentication prompt
// and the settle delay after a successful submission.
type SyncEngine struct {
	history        services.HistoryService
	metadata       services.MetadataService
	logger         *log.Logger
	notify         Notifier
	confirm        Confirmer
	settleDelay    time.Duration
	watchlistLabel string
	now            func() time.Time
	sleep          func(ctx context.Context, d time.Duration) error
}

// NewSyncEngine creates an engine. metadata may be nil when shows are not expanded.
func NewSyncEngine(history services.HistoryService, metadata services.MetadataService, opts EngineOptions) *SyncEngine {
	e := &SyncEngine{
		history:        history,
		metadata:       metadata,
		logger:         opts.Logger,
		notify:         opts.Notify,
		confirm:        opts.Confirm,
		settleDelay:    opts.SettleDelay,
		watchlistLabel: opts.WatchlistLabel,
		now:            opts.Now,
		sleep:          opts.Sleep,
	}

	if e.logger == nil {
		e.logger = shared.NewLogger(io.Discard)
	}
	if e.settleDelay < 0 {
		e.settleDelay = 0
	}
	if e.watchlistLabel == "" {
		e.watchlistLabel = DefaultWatchlistLabel
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.sleep == nil {
		e.sleep = sleepContext
	}
	return e
}

// sendProgress sends a progress update through the channel without blocking.
func (e *SyncEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
