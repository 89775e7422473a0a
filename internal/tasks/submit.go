package tasks

import (
	"context"
	"errors"

	"github.com/desertthunder/simklx/internal/models"
	"github.com/desertthunder/simklx/internal/records"
	"github.com/desertthunder/simklx/internal/services"
	"github.com/desertthunder/simklx/internal/shared"
	"golang.org/x/oauth2"
)

// ExpansionFailure records a show submitted without season detail.
type ExpansionFailure struct {
	ShowID int
	Err    error
}

// SubmissionResult is the outcome of one batch submission.
//
// A failed submission is reported here rather than returned as an error so the run can continue.
type SubmissionResult struct {
	Attempted  bool
	Succeeded  bool
	DryRun     bool
	StatusCode int
	Body       string
	Err        error

	Movies   int
	Shows    int
	Episodes int

	ExpansionFailures []ExpansionFailure
	Response          *models.SyncResponse
	Payload           any // *models.SyncPayload or *models.ListPayload
}

// BuildHistoryPayload expands every show and assembles the complete payload.
//
// Movies share one watched_at timestamp taken before the first show is expanded.
// Shows whose lookup fails or yields no episodes are included without seasons.
func (e *SyncEngine) BuildHistoryPayload(ctx context.Context, parsed *records.ParseResult, progress chan<- ProgressUpdate) (*models.SyncPayload, []ExpansionFailure) {
	payload := models.NewSyncPayload()
	watchedAt := e.now()

	for _, movie := range parsed.Movies {
		payload.AddMovie(movie, watchedAt)
	}

	var failures []ExpansionFailure
	for i, show := range parsed.Shows {
		e.sendProgress(progress, expandUpdate(i+1, len(parsed.Shows), show.ExternalID))

		total, manifests, err := e.Expand(ctx, show.ExternalID)
		if err != nil {
			e.logger.Warn("show expansion failed, submitting without seasons", "show", show.ExternalID, "error", err)
			failures = append(failures, ExpansionFailure{ShowID: show.ExternalID, Err: err})
			payload.AddShow(show, nil)
			continue
		}
		if total == 0 {
			e.logger.Debug("show has no episodes, submitting without seasons", "show", show.ExternalID)
			payload.AddShow(show, nil)
			continue
		}

		e.logger.Debug("expanded show", "show", show.ExternalID, "seasons", len(manifests), "episodes", total)
		payload.AddShow(show, manifests)
	}

	return payload, failures
}

// SubmitHistory builds the history payload and sends it in a single request.
func (e *SyncEngine) SubmitHistory(ctx context.Context, token *oauth2.Token, parsed *records.ParseResult, progress chan<- ProgressUpdate) *SubmissionResult {
	payload, failures := e.BuildHistoryPayload(ctx, parsed, progress)
	result := &SubmissionResult{
		Movies:            len(payload.Movies),
		Shows:             len(payload.Shows),
		Episodes:          payload.EpisodeCount(),
		ExpansionFailures: failures,
		Payload:           payload,
	}

	if payload.Len() == 0 {
		e.logger.Warn("nothing to submit")
		return result
	}

	e.sendProgress(progress, submitUpdate(SubmitHistory, payload.Len()))
	resp, err := e.history.AddToHistory(ctx, token, payload)
	e.record(result, resp, err, "history")
	return result
}

// SubmitWatchlist places every parsed intent on the watchlist without ratings or seasons.
func (e *SyncEngine) SubmitWatchlist(ctx context.Context, token *oauth2.Token, parsed *records.ParseResult, progress chan<- ProgressUpdate) *SubmissionResult {
	payload := models.NewListPayload(e.watchlistLabel, parsed.Movies, parsed.Shows)
	result := &SubmissionResult{
		Movies:  len(payload.Movies),
		Shows:   len(payload.Shows),
		Payload: payload,
	}

	if payload.Len() == 0 {
		e.logger.Warn("watchlist is empty")
		return result
	}

	e.sendProgress(progress, submitUpdate(SubmitWatchlist, payload.Len()))
	resp, err := e.history.AddToList(ctx, token, payload)
	e.record(result, resp, err, "watchlist")
	return result
}

func (e *SyncEngine) record(result *SubmissionResult, resp *models.SyncResponse, err error, what string) {
	result.Attempted = true
	result.Response = resp
	if resp != nil {
		result.StatusCode = resp.StatusCode
		result.Body = string(resp.Body)
	}

	var statusErr *services.StatusError
	if errors.As(err, &statusErr) {
		result.StatusCode = statusErr.StatusCode
		result.Body = string(statusErr.Body)
	}

	if err != nil {
		result.Err = shared.WrapKind(shared.ErrSubmission, err)
		e.logger.Error("submission failed", "kind", what, "status", result.StatusCode, "body", result.Body, "error", err)
		return
	}

	result.Succeeded = true
	if resp != nil {
		e.logger.Info("submission accepted", "kind", what,
			"movies", resp.Added.Movies, "shows", resp.Added.Shows, "episodes", resp.Added.Episodes,
			"not_found", resp.NotFound.Len())
	}
}
