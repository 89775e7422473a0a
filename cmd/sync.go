package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/desertthunder/simklx/internal/formatter"
	"github.com/desertthunder/simklx/internal/models"
	"github.com/desertthunder/simklx/internal/records"
	"github.com/desertthunder/simklx/internal/repositories"
	"github.com/desertthunder/simklx/internal/services"
	"github.com/desertthunder/simklx/internal/shared"
	"github.com/desertthunder/simklx/internal/tasks"
	"github.com/desertthunder/simklx/internal/ui"
	"github.com/urfave/cli/v3"
)

// Import submits the history export, waits for it to settle, reconciles and offers the watchlist.
func (r *Runner) Import(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	historyPath := firstNonEmpty(cmd.String("history"), r.config.Sync.HistoryPath)
	parsed, err := r.loadExport(historyPath)
	if err != nil {
		return err
	}

	var watchlist *records.ParseResult
	if !cmd.Bool("skip-watchlist") {
		if watchlist, err = r.loadWatchlist(cmd.String("watchlist")); err != nil {
			return err
		}
	}

	dryRun := cmd.Bool("dry-run")
	metadata, err := r.metadataService()
	if err != nil {
		return err
	}

	var history services.HistoryService
	if !dryRun {
		if history, err = r.historyService(); err != nil {
			return err
		}
	}

	delay := r.config.Sync.SettleDelay
	if cmd.IsSet("delay") {
		delay = cmd.Duration("delay")
	}

	engine := r.newEngine(history, metadata, engineOpts{openBrowser: cmd.Bool("open"), settleDelay: delay})

	r.logger.Info("starting import", "history", historyPath, "movies", len(parsed.Movies), "shows", len(parsed.Shows), "dry_run", dryRun)

	var recorder *runRecorder
	if !dryRun {
		recorder = r.startRun(ctx, "import", historyPath)
	}

	progressCh, stop := r.startProgress()
	result, err := engine.Run(ctx, parsed, tasks.RunOptions{
		DryRun:          dryRun,
		Watchlist:       watchlist,
		AssumeWatchlist: cmd.Bool("yes"),
	}, progressCh)
	stop()

	recorder.finish(ctx, result, err)
	if err != nil {
		return err
	}

	if dryRun {
		return r.writeJSON(result.Submission.Payload, true)
	}

	r.writePlainln("%s", ui.RenderSummary(result))
	if result.Reconcile == nil {
		return nil
	}
	return r.writeReport(cmd, format, historyPath, result.Reconcile)
}

// Reconcile authenticates and reports export items missing from the remote history.
func (r *Runner) Reconcile(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	historyPath := firstNonEmpty(cmd.String("history"), r.config.Sync.HistoryPath)
	parsed, err := r.loadExport(historyPath)
	if err != nil {
		return err
	}

	history, err := r.historyService()
	if err != nil {
		return err
	}

	engine := r.newEngine(history, nil, engineOpts{openBrowser: cmd.Bool("open")})
	recorder := r.startRun(ctx, "reconcile", historyPath)
	result := &tasks.RunResult{StartedAt: r.now(), Parsed: parsed}

	token, err := engine.Authenticate(ctx, nil)
	if err != nil {
		recorder.finish(ctx, result, err)
		return err
	}

	progressCh, stop := r.startProgress()
	reconciled, err := engine.Reconcile(ctx, token, parsed.Intents(), progressCh)
	stop()

	if err != nil {
		result.HistoryErr = err
		recorder.finish(ctx, result, nil)
		return err
	}

	result.Reconcile = reconciled
	result.FinishedAt = r.now()
	recorder.finish(ctx, result, nil)

	r.writePlainln("%s", ui.RenderSummary(result))
	return r.writeReport(cmd, format, historyPath, reconciled)
}

// Watchlist authenticates and places the watchlist export on a Simkl list.
func (r *Runner) Watchlist(ctx context.Context, cmd *cli.Command) error {
	path := firstNonEmpty(cmd.String("file"), r.config.Sync.WatchlistPath)
	parsed, err := r.loadExport(path)
	if err != nil {
		return err
	}

	history, err := r.historyService()
	if err != nil {
		return err
	}

	engine := r.newEngine(history, nil, engineOpts{
		openBrowser:    cmd.Bool("open"),
		watchlistLabel: cmd.String("list"),
	})

	token, err := engine.Authenticate(ctx, nil)
	if err != nil {
		return err
	}

	progressCh, stop := r.startProgress()
	submission := engine.SubmitWatchlist(ctx, token, parsed, progressCh)
	stop()

	r.writePlainln("%s", ui.RenderSummary(&tasks.RunResult{Parsed: parsed, Watchlist: submission}))
	return submission.Err
}

// loadExport reads an export, logging each skipped row.
func (r *Runner) loadExport(path string) (*records.ParseResult, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: no export path given", shared.ErrMissingArgument)
	}

	parsed, err := records.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrInvalidInput, err)
	}

	for _, skip := range parsed.Skipped {
		r.logger.Debug("row skipped", "path", path, "line", skip.Line, "reason", skip.Reason)
	}
	if parsed.Ignored > 0 {
		r.logger.Debug("rows with other types ignored", "path", path, "count", parsed.Ignored)
	}
	return parsed, nil
}

// loadWatchlist reads the watchlist named by flag, or the configured one when it exists.
//
// A missing default file disables the watchlist stage; a missing explicit file is an error.
func (r *Runner) loadWatchlist(flag string) (*records.ParseResult, error) {
	if flag != "" {
		return r.loadExport(flag)
	}

	path := r.config.Sync.WatchlistPath
	if path == "" {
		return nil, nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		r.logger.Debug("no watchlist export found, skipping", "path", path)
		return nil, nil
	}
	return r.loadExport(path)
}

// writeReport renders the discrepancy report to --export or stdout.
func (r *Runner) writeReport(cmd *cli.Command, format formatter.Format, source string, reconciled *tasks.ReconcileResult) error {
	export := &formatter.ReportExport{
		Source:        source,
		GeneratedAt:   r.now(),
		RemoteItems:   reconciled.RemoteItems,
		Discrepancies: reconciled.Report,
		Skips:         reconciled.Skips,
	}

	path, err := formatter.WriteExport(export, format, cmd.String("export"), r.output)
	if err != nil {
		return err
	}
	if path != "" {
		r.logger.Info("report written", "path", path, "format", format)
		return r.writePlain("Report written to %s\n", path)
	}
	return nil
}

// runRecorder stores one run in the audit log. A nil recorder does nothing.
type runRecorder struct {
	db     *sql.DB
	repo   *repositories.RunRepository
	run    *models.SyncRun
	runner *Runner
}

// startRun creates a running audit record, or returns nil when auditing is off or unavailable.
func (r *Runner) startRun(ctx context.Context, command, source string) *runRecorder {
	db, err := r.auditDatabase(ctx)
	if err != nil {
		r.logger.Warn("audit log unavailable", "error", err)
		return nil
	}
	if db == nil {
		return nil
	}

	repo := repositories.NewRunRepository(db)
	run := models.NewSyncRun(command, source, r.now())
	if err := repo.Create(ctx, run); err != nil {
		r.logger.Warn("failed to record run", "error", err)
		db.Close()
		return nil
	}

	r.logger.Debug("run recorded", "run", run.Sequence(), "id", run.ID())
	return &runRecorder{db: db, repo: repo, run: run, runner: r}
}

// finish stores the outcome of a run, including after cancellation.
func (rec *runRecorder) finish(ctx context.Context, result *tasks.RunResult, runErr error) {
	if rec == nil {
		return
	}
	defer rec.db.Close()
	ctx = context.WithoutCancel(ctx)

	run := rec.run
	status := models.RunFailed
	if result != nil {
		if result.Parsed != nil {
			run.SetTotals(len(result.Parsed.Movies), len(result.Parsed.Shows))
		}
		if sub := result.Submission; sub != nil {
			run.SetSubmissionStatus(sub.StatusCode)
			if sub.Err != nil {
				run.SetErrorMessage(sub.Err.Error())
			}
		}
		if result.HistoryErr != nil {
			run.SetErrorMessage(result.HistoryErr.Error())
		}
		if rc := result.Reconcile; rc != nil {
			run.SetHistoryFetched(true)
			run.SetMissing(len(rc.Report.MissingMovies), len(rc.Report.MissingShows))
			run.SetSkippedItems(len(rc.Skips))
		}
		if runErr == nil {
			status = result.Status()
		}
	}
	if runErr != nil {
		run.SetErrorMessage(runErr.Error())
	}

	run.Finish(status, rec.runner.now())
	if err := rec.repo.Update(ctx, run); err != nil {
		rec.runner.logger.Warn("failed to update run", "run", run.Sequence(), "error", err)
		return
	}

	if result != nil && result.Reconcile != nil {
		rows := models.DiscrepanciesFromReport(run.ID(), result.Reconcile.Report)
		if err := rec.repo.SaveDiscrepancies(ctx, run.ID(), rows); err != nil {
			rec.runner.logger.Warn("failed to record discrepancies", "run", run.Sequence(), "error", err)
		}
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
