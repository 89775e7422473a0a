package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/simklx/internal/models"
	"github.com/desertthunder/simklx/internal/records"
	"github.com/desertthunder/simklx/internal/shared"
)

// WatchlistPrompt is the question asked before importing the watchlist.
const WatchlistPrompt = "Import the watchlist too?"

// RunOptions selects the optional stages of [SyncEngine.Run].
type RunOptions struct {
	DryRun          bool                 // build the history payload only
	Watchlist       *records.ParseResult // nil skips the watchlist stage
	AssumeWatchlist bool                 // import the watchlist without asking
}

// RunResult collects the outcome of every stage of a run.
type RunResult struct {
	StartedAt  time.Time
	FinishedAt time.Time

	Parsed      *records.ParseResult
	Submission  *SubmissionResult
	Settled     bool
	HistoryErr  error
	Reconcile   *ReconcileResult
	Watchlist   *SubmissionResult
	WatchlistOK bool // the user agreed to import the watchlist
}

// Report returns the discrepancy report, or nil when reconciliation did not run.
func (r *RunResult) Report() *models.DiscrepancyReport {
	if r.Reconcile == nil {
		return nil
	}
	return r.Reconcile.Report
}

// Skips returns the remote items that could not be indexed.
func (r *RunResult) Skips() []models.ExtractionSkip {
	if r.Reconcile == nil {
		return nil
	}
	return r.Reconcile.Skips
}

// Status summarizes the run for the audit log.
func (r *RunResult) Status() models.RunStatus {
	switch {
	case r.Submission != nil && r.Submission.DryRun:
		return models.RunCompleted
	case r.Submission != nil && r.Submission.Err != nil,
		r.HistoryErr != nil,
		r.Watchlist != nil && r.Watchlist.Err != nil:
		return models.RunPartial
	default:
		return models.RunCompleted
	}
}

// Run authenticates, submits the parsed history, waits for it to settle, reconciles
// against the remote history and optionally imports the watchlist.
//
// Only authentication failures and context cancellation are returned as errors;
// everything else is recorded in the result.
func (e *SyncEngine) Run(ctx context.Context, parsed *records.ParseResult, opts RunOptions, progress chan<- ProgressUpdate) (*RunResult, error) {
	result := &RunResult{StartedAt: e.now(), Parsed: parsed}
	defer func() { result.FinishedAt = e.now() }()

	if parsed == nil {
		return result, fmt.Errorf("%w: no parsed records", shared.ErrInvalidInput)
	}
	e.sendProgress(progress, parsedUpdate(len(parsed.Movies), len(parsed.Shows)))
	for _, skip := range parsed.Skipped {
		e.logger.Warn("source row skipped", "line", skip.Line, "value", skip.Value, "reason", skip.Reason)
	}

	if opts.DryRun {
		payload, failures := e.BuildHistoryPayload(ctx, parsed, progress)
		result.Submission = &SubmissionResult{
			DryRun:            true,
			Movies:            len(payload.Movies),
			Shows:             len(payload.Shows),
			Episodes:          payload.EpisodeCount(),
			ExpansionFailures: failures,
			Payload:           payload,
		}
		return result, ctx.Err()
	}

	token, err := e.Authenticate(ctx, progress)
	if err != nil {
		return result, err
	}

	result.Submission = e.SubmitHistory(ctx, token, parsed, progress)
	if err := ctx.Err(); err != nil {
		return result, err
	}

	if result.Submission.Succeeded && e.settleDelay > 0 {
		e.sendProgress(progress, settleUpdate(e.settleDelay))
		if err := e.sleep(ctx, e.settleDelay); err != nil {
			return result, err
		}
		result.Settled = true
	}

	reconciled, err := e.Reconcile(ctx, token, parsed.Intents(), progress)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return result, err
		}
		result.HistoryErr = err
	} else {
		result.Reconcile = reconciled
	}

	if opts.Watchlist == nil {
		return result, nil
	}

	if !opts.AssumeWatchlist {
		ok, err := e.ask(ctx, WatchlistPrompt)
		if err != nil {
			return result, err
		}
		if !ok {
			e.logger.Info("watchlist import declined")
			return result, nil
		}
	}

	result.WatchlistOK = true
	result.Watchlist = e.SubmitWatchlist(ctx, token, opts.Watchlist, progress)
	return result, nil
}

func (e *SyncEngine) ask(ctx context.Context, prompt string) (bool, error) {
	if e.confirm == nil {
		return false, nil
	}
	return e.confirm(ctx, prompt)
}
