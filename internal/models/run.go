package models

import (
	"fmt"
	"time"
)

// RunStatus is the outcome of a [SyncRun].
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed" // submission and reconciliation both succeeded
	RunPartial   RunStatus = "partial"   // a non-fatal stage failed
	RunFailed    RunStatus = "failed"    // authentication or input failure
)

// Valid reports whether s is a known status.
func (s RunStatus) Valid() bool {
	switch s {
	case RunRunning, RunCompleted, RunPartial, RunFailed:
		return true
	}
	return false
}

// SyncRun is the audit record of one import or reconcile invocation.
type SyncRun struct {
	id               string
	sequence         int
	command          string
	sourcePath       string
	status           RunStatus
	moviesTotal      int
	showsTotal       int
	submissionStatus int
	historyFetched   bool
	missingMovies    int
	missingShows     int
	skippedItems     int
	errorMessage     string
	startedAt        time.Time
	completedAt      *time.Time
	createdAt        time.Time
	updatedAt        time.Time
	deletedAt        *time.Time
}

// NewSyncRun starts a run record for command reading sourcePath.
func NewSyncRun(command, sourcePath string, startedAt time.Time) *SyncRun {
	return &SyncRun{
		command:    command,
		sourcePath: sourcePath,
		status:     RunRunning,
		startedAt:  startedAt,
		createdAt:  startedAt,
		updatedAt:  startedAt,
	}
}

// RestoreSyncRun rebuilds a run from stored columns.
func RestoreSyncRun(id string, sequence int, command, sourcePath string, status RunStatus, startedAt, createdAt time.Time) *SyncRun {
	return &SyncRun{
		id:         id,
		sequence:   sequence,
		command:    command,
		sourcePath: sourcePath,
		status:     status,
		startedAt:  startedAt,
		createdAt:  createdAt,
		updatedAt:  createdAt,
	}
}

func (r *SyncRun) ID() string { return r.id }
func (r *SyncRun) Sequence() int { return r.sequence }
func (r *SyncRun) Command() string { return r.command }
func (r *SyncRun) SourcePath() string { return r.sourcePath }
func (r *SyncRun) Status() RunStatus { return r.status }
func (r *SyncRun) MoviesTotal() int { return r.moviesTotal }
func (r *SyncRun) ShowsTotal() int { return r.showsTotal }
func (r *SyncRun) SubmissionStatus() int { return r.submissionStatus }
func (r *SyncRun) HistoryFetched() bool { return r.historyFetched }
func (r *SyncRun) MissingMovies() int { return r.missingMovies }
func (r *SyncRun) MissingShows() int { return r.missingShows }
func (r *SyncRun) SkippedItems() int { return r.skippedItems }
func (r *SyncRun) ErrorMessage() string { return r.errorMessage }
func (r *SyncRun) StartedAt() time.Time { return r.startedAt }
func (r *SyncRun) CompletedAt() *time.Time { return r.completedAt }
func (r *SyncRun) CreatedAt() time.Time { return r.createdAt }
func (r *SyncRun) UpdatedAt() time.Time { return r.updatedAt }
func (r *SyncRun) DeletedAt() *time.Time { return r.deletedAt }

func (r *SyncRun) SetID(id string) { r.id = id }
func (r *SyncRun) SetSequence(seq int) { r.sequence = seq }
func (r *SyncRun) SetUpdatedAt(t time.Time) { r.updatedAt = t }
func (r *SyncRun) SetDeletedAt(t *time.Time) { r.deletedAt = t }
func (r *SyncRun) SetCompletedAt(t *time.Time) { r.completedAt = t }
func (r *SyncRun) SetErrorMessage(msg string) { r.errorMessage = msg }
func (r *SyncRun) SetSubmissionStatus(code int) { r.submissionStatus = code }
func (r *SyncRun) SetHistoryFetched(ok bool) { r.historyFetched = ok }
func (r *SyncRun) SetSkippedItems(n int) { r.skippedItems = n }
func (r *SyncRun) SetTotals(movies, shows int) { r.moviesTotal, r.showsTotal = movies, shows }
func (r *SyncRun) SetMissing(movies, shows int) { r.missingMovies, r.missingShows = movies, shows }
func (r *SyncRun) SetStatus(status RunStatus) { r.status = status }

// Finish stamps the completion time and final status.
func (r *SyncRun) Finish(status RunStatus, at time.Time) {
	r.status = status
	r.completedAt = &at
	r.updatedAt = at
}

// Duration is the elapsed run time, zero while running.
func (r *SyncRun) Duration() time.Duration {
	if r.completedAt == nil {
		return 0
	}
	return r.completedAt.Sub(r.startedAt)
}

// Validate checks required fields and status.
func (r *SyncRun) Validate() error {
	if r.id == "" {
		return fmt.Errorf("run ID is required")
	}
	if r.command == "" {
		return fmt.Errorf("run command is required")
	}
	if !r.status.Valid() {
		return fmt.Errorf("invalid run status: %q", r.status)
	}
	if r.startedAt.IsZero() {
		return fmt.Errorf("run start time is required")
	}
	return nil
}

// RunDiscrepancy is one missing item recorded against a run.
type RunDiscrepancy struct {
	RunID      string
	Position   int
	Kind       MediaKind
	ExternalID string
	Provenance string
}

// DiscrepanciesFromReport flattens a report into rows for runID, movies first.
func DiscrepanciesFromReport(runID string, report *DiscrepancyReport) []RunDiscrepancy {
	if report == nil {
		return nil
	}
	rows := make([]RunDiscrepancy, 0, len(report.MissingMovies)+len(report.MissingShows))
	for i, m := range report.MissingMovies {
		rows = append(rows, RunDiscrepancy{RunID: runID, Position: i, Kind: KindMovie, ExternalID: m.ID, Provenance: m.Provenance})
	}
	for i, s := range report.MissingShows {
		rows = append(rows, RunDiscrepancy{RunID: runID, Position: i, Kind: KindShow, ExternalID: s.ID, Provenance: s.Provenance})
	}
	return rows
}

// ReportFromDiscrepancies rebuilds a report from stored rows.
func ReportFromDiscrepancies(rows []RunDiscrepancy) *DiscrepancyReport {
	report := &DiscrepancyReport{MissingMovies: []MissingItem{}, MissingShows: []MissingItem{}}
	for _, row := range rows {
		item := MissingItem{ID: row.ExternalID, Provenance: row.Provenance}
		switch row.Kind {
		case KindMovie:
			report.MissingMovies = append(report.MissingMovies, item)
		case KindShow:
			report.MissingShows = append(report.MissingShows, item)
		}
	}
	return report
}
