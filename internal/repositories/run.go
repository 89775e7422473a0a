package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/simklx/internal/models"
	"github.com/desertthunder/simklx/internal/shared"
)

const runColumns = `
	id, sequence, command, source_path, status, movies_total, shows_total,
	submission_status, history_fetched, missing_movies, missing_shows,
	skipped_items, error_message, started_at, completed_at, created_at,
	updated_at, deleted_at
`

// RunRepository implements models.Repository[*models.SyncRun] for the run audit log.
//
// Handles run CRUD operations with soft delete support, status-based queries and
// the discrepancy rows recorded against each run.
type RunRepository struct {
	db *sql.DB
}

var _ models.Repository[*models.SyncRun] = (*RunRepository)(nil)

// NewRunRepository creates a new RunRepository with the given database connection
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create inserts a new run into the database with generated ID and sequence
func (r *RunRepository) Create(ctx context.Context, run *models.SyncRun) error {
	sequence, err := NextSequence(ctx, r.db, "sync_runs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	run.SetID(id)
	run.SetSequence(sequence)

	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO sync_runs (
			id, sequence, command, source_path, status, movies_total, shows_total,
			submission_status, history_fetched, missing_movies, missing_shows,
			skipped_items, error_message, started_at, completed_at, created_at,
			updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, query,
		id,
		sequence,
		run.Command(),
		run.SourcePath(),
		run.Status(),
		run.MoviesTotal(),
		run.ShowsTotal(),
		run.SubmissionStatus(),
		run.HistoryFetched(),
		run.MissingMovies(),
		run.MissingShows(),
		run.SkippedItems(),
		nullable(run.ErrorMessage()),
		run.StartedAt(),
		run.CompletedAt(),
		run.CreatedAt(),
		run.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	return nil
}

// Get retrieves a run by ID, excluding soft-deleted runs
func (r *RunRepository) Get(ctx context.Context, id string) (*models.SyncRun, error) {
	query := `SELECT ` + runColumns + ` FROM sync_runs WHERE id = ? AND deleted_at IS NULL`
	return r.scan(r.db.QueryRowContext(ctx, query, id))
}

// GetBySequence retrieves a run by its sequence number
func (r *RunRepository) GetBySequence(ctx context.Context, sequence int) (*models.SyncRun, error) {
	query := `SELECT ` + runColumns + ` FROM sync_runs WHERE sequence = ? AND deleted_at IS NULL`
	return r.scan(r.db.QueryRowContext(ctx, query, sequence))
}

// Latest retrieves the most recently started run
func (r *RunRepository) Latest(ctx context.Context) (*models.SyncRun, error) {
	query := `SELECT ` + runColumns + ` FROM sync_runs WHERE deleted_at IS NULL ORDER BY sequence DESC LIMIT 1`
	return r.scan(r.db.QueryRowContext(ctx, query))
}

// Update modifies an existing run in the database
func (r *RunRepository) Update(ctx context.Context, run *models.SyncRun) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	run.SetUpdatedAt(now)

	query := `
		UPDATE sync_runs
		SET status = ?, movies_total = ?, shows_total = ?, submission_status = ?,
			history_fetched = ?, missing_movies = ?, missing_shows = ?,
			skipped_items = ?, error_message = ?, completed_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query,
		run.Status(),
		run.MoviesTotal(),
		run.ShowsTotal(),
		run.SubmissionStatus(),
		run.HistoryFetched(),
		run.MissingMovies(),
		run.MissingShows(),
		run.SkippedItems(),
		nullable(run.ErrorMessage()),
		run.CompletedAt(),
		now,
		run.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}

	return expectAffected(result, "run", run.ID())
}

// Delete soft-deletes a run by ID
func (r *RunRepository) Delete(ctx context.Context, id string) error {
	query := `
		UPDATE sync_runs
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}

	return expectAffected(result, "run", id)
}

// List retrieves all runs matching the given criteria, excluding soft-deleted runs.
//
// Supported criteria: "status" (string or models.RunStatus), "command" (string) and "limit" (int).
// Runs are returned newest first.
func (r *RunRepository) List(ctx context.Context, criteria map[string]any) ([]*models.SyncRun, error) {
	query := `SELECT ` + runColumns + ` FROM sync_runs WHERE deleted_at IS NULL`
	args := []any{}

	switch status := criteria["status"].(type) {
	case models.RunStatus:
		if status != "" {
			query += " AND status = ?"
			args = append(args, string(status))
		}
	case string:
		if status != "" {
			query += " AND status = ?"
			args = append(args, status)
		}
	}

	if command, ok := criteria["command"].(string); ok && command != "" {
		query += " AND command = ?"
		args = append(args, command)
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.SyncRun
	for rows.Next() {
		run, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return runs, nil
}

// SaveDiscrepancies replaces the discrepancy rows of a run in one transaction
func (r *RunRepository) SaveDiscrepancies(ctx context.Context, runID string, rows []models.RunDiscrepancy) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM run_discrepancies WHERE run_id = ?", runID); err != nil {
		return fmt.Errorf("failed to clear discrepancies: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO run_discrepancies (run_id, position, kind, external_id, provenance)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare discrepancy insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, runID, row.Position, string(row.Kind), row.ExternalID, row.Provenance); err != nil {
			return fmt.Errorf("failed to insert discrepancy %s %s: %w", row.Kind, row.ExternalID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit discrepancies: %w", err)
	}
	return nil
}

// Discrepancies returns the rows recorded for a run, movies first and in source order
func (r *RunRepository) Discrepancies(ctx context.Context, runID string) ([]models.RunDiscrepancy, error) {
	query := `
		SELECT run_id, position, kind, external_id, provenance
		FROM run_discrepancies
		WHERE run_id = ?
		ORDER BY CASE kind WHEN 'movie' THEN 0 ELSE 1 END, position ASC
	`

	rows, err := r.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query discrepancies: %w", err)
	}
	defer rows.Close()

	var out []models.RunDiscrepancy
	for rows.Next() {
		var (
			d    models.RunDiscrepancy
			kind string
		)
		if err := rows.Scan(&d.RunID, &d.Position, &kind, &d.ExternalID, &d.Provenance); err != nil {
			return nil, fmt.Errorf("failed to scan discrepancy: %w", err)
		}
		d.Kind = models.MediaKind(kind)
		out = append(out, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scan reads one run from a [sql.Row] or [sql.Rows]
func (r *RunRepository) scan(row scanner) (*models.SyncRun, error) {
	var (
		id               string
		sequence         int
		command          string
		sourcePath       string
		status           string
		moviesTotal      int
		showsTotal       int
		submissionStatus int
		historyFetched   bool
		missingMovies    int
		missingShows     int
		skippedItems     int
		errorMessage     sql.NullString
		startedAt        time.Time
		completedAt      sql.NullTime
		createdAt        time.Time
		updatedAt        time.Time
		deletedAt        sql.NullTime
	)

	err := row.Scan(
		&id, &sequence, &command, &sourcePath, &status, &moviesTotal, &showsTotal,
		&submissionStatus, &historyFetched, &missingMovies, &missingShows,
		&skippedItems, &errorMessage, &startedAt, &completedAt, &createdAt,
		&updatedAt, &deletedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %w", shared.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	run := models.RestoreSyncRun(id, sequence, command, sourcePath, models.RunStatus(status), startedAt, createdAt)
	run.SetTotals(moviesTotal, showsTotal)
	run.SetSubmissionStatus(submissionStatus)
	run.SetHistoryFetched(historyFetched)
	run.SetMissing(missingMovies, missingShows)
	run.SetSkippedItems(skippedItems)
	run.SetErrorMessage(errorMessage.String)
	run.SetUpdatedAt(updatedAt)
	if completedAt.Valid {
		run.SetCompletedAt(&completedAt.Time)
	}
	if deletedAt.Valid {
		run.SetDeletedAt(&deletedAt.Time)
	}

	return run, nil
}

func expectAffected(result sql.Result, entity, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%s %w or already deleted: %s", entity, shared.ErrNotFound, id)
	}
	return nil
}
