package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/simklx/internal/formatter"
	"github.com/desertthunder/simklx/internal/models"
	"github.com/desertthunder/simklx/internal/repositories"
	"github.com/desertthunder/simklx/internal/shared"
	"github.com/urfave/cli/v3"
)

type runOutput struct {
	ID               string     `json:"id"`
	Sequence         int        `json:"sequence"`
	Command          string     `json:"command"`
	Source           string     `json:"source"`
	Status           string     `json:"status"`
	Movies           int        `json:"movies"`
	Shows            int        `json:"shows"`
	SubmissionStatus int        `json:"submission_status,omitempty"`
	HistoryFetched   bool       `json:"history_fetched"`
	MissingMovies    int        `json:"missing_movies"`
	MissingShows     int        `json:"missing_shows"`
	SkippedItems     int        `json:"skipped_items"`
	Error            string     `json:"error,omitempty"`
	StartedAt        time.Time  `json:"started_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
}

func newRunOutput(run *models.SyncRun) runOutput {
	return runOutput{
		ID:               run.ID(),
		Sequence:         run.Sequence(),
		Command:          run.Command(),
		Source:           run.SourcePath(),
		Status:           string(run.Status()),
		Movies:           run.MoviesTotal(),
		Shows:            run.ShowsTotal(),
		SubmissionStatus: run.SubmissionStatus(),
		HistoryFetched:   run.HistoryFetched(),
		MissingMovies:    run.MissingMovies(),
		MissingShows:     run.MissingShows(),
		SkippedItems:     run.SkippedItems(),
		Error:            run.ErrorMessage(),
		StartedAt:        run.StartedAt(),
		CompletedAt:      run.CompletedAt(),
	}
}

// RunsList prints recorded runs, newest first.
func (r *Runner) RunsList(ctx context.Context, cmd *cli.Command) error {
	criteria := map[string]any{"limit": cmd.Int("limit")}
	if status := cmd.String("status"); status != "" {
		if !models.RunStatus(status).Valid() {
			return fmt.Errorf("%w: unknown status %q", shared.ErrInvalidFlag, status)
		}
		criteria["status"] = status
	}

	db, err := r.runsDatabase(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	runs, err := repositories.NewRunRepository(db).List(ctx, criteria)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		out := make([]runOutput, 0, len(runs))
		for _, run := range runs {
			out = append(out, newRunOutput(run))
		}
		return r.writeJSON(out, true)
	}

	if len(runs) == 0 {
		return r.writePlain("No runs recorded\n")
	}

	r.writePlain("%-5s %-10s %-10s %-20s %-8s %s\n", "#", "COMMAND", "STATUS", "STARTED", "MISSING", "SOURCE")
	for _, run := range runs {
		missing := "-"
		if run.HistoryFetched() {
			missing = fmt.Sprintf("%d", run.MissingMovies()+run.MissingShows())
		}
		r.writePlain("%-5d %-10s %-10s %-20s %-8s %s\n",
			run.Sequence(), run.Command(), run.Status(),
			run.StartedAt().Local().Format("2006-01-02 15:04:05"), missing, run.SourcePath())
	}
	return nil
}

// RunsShow prints one run and re-renders its stored discrepancy report.
func (r *Runner) RunsShow(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	db, err := r.runsDatabase(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	repo := repositories.NewRunRepository(db)

	var run *models.SyncRun
	if seq := cmd.IntArg("sequence"); seq > 0 {
		run, err = repo.GetBySequence(ctx, seq)
	} else {
		run, err = repo.Latest(ctx)
	}
	if err != nil {
		return err
	}

	r.writePlainHeader(fmt.Sprintf("Run #%d (%s)", run.Sequence(), run.Command()))
	r.writePlain("Status:     %s\n", run.Status())
	r.writePlain("Source:     %s\n", run.SourcePath())
	r.writePlain("Started:    %s\n", run.StartedAt().Local().Format(time.RFC1123))
	if run.CompletedAt() != nil {
		r.writePlain("Duration:   %s\n", run.Duration().Round(time.Millisecond))
	}
	r.writePlain("Parsed:     %d movies, %d shows\n", run.MoviesTotal(), run.ShowsTotal())
	if run.SubmissionStatus() != 0 {
		r.writePlain("Submission: status %d\n", run.SubmissionStatus())
	}
	if run.ErrorMessage() != "" {
		r.writePlain("Error:      %s\n", run.ErrorMessage())
	}

	if !run.HistoryFetched() {
		return r.writePlain("\nNo reconciliation recorded for this run\n")
	}

	rows, err := repo.Discrepancies(ctx, run.ID())
	if err != nil {
		return err
	}

	export := &formatter.ReportExport{
		Source:        run.SourcePath(),
		GeneratedAt:   run.StartedAt(),
		Discrepancies: models.ReportFromDiscrepancies(rows),
	}
	if run.CompletedAt() != nil {
		export.GeneratedAt = *run.CompletedAt()
	}

	r.writePlain("\n")
	path, err := formatter.WriteExport(export, format, cmd.String("export"), r.output)
	if err != nil {
		return err
	}
	if path != "" {
		return r.writePlain("Report written to %s\n", path)
	}
	return nil
}

// runsDatabase opens the audit log, failing when it is disabled.
func (r *Runner) runsDatabase(ctx context.Context) (*sql.DB, error) {
	db, err := r.auditDatabase(ctx)
	if err != nil {
		return nil, err
	}
	if db == nil {
		return nil, fmt.Errorf("%w: database.path is empty, the audit log is disabled", shared.ErrInvalidConfig)
	}
	return db, nil
}
