package tasks

import (
	"fmt"

	"github.com/desertthunder/simklx/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Operation phase enumeration
type Phase int

const (
	Authenticate Phase = iota
	ParseRecords
	ExpandShows
	SubmitHistory
	Settle
	FetchHistory
	Reconcile
	SubmitWatchlist
)

func (p Phase) String() string {
	switch p {
	case Authenticate:
		return "authenticate"
	case ParseRecords:
		return "parse_records"
	case ExpandShows:
		return "expand_shows"
	case SubmitHistory:
		return "submit_history"
	case Settle:
		return "settle"
	case FetchHistory:
		return "fetch_history"
	case Reconcile:
		return "reconcile"
	case SubmitWatchlist:
		return "submit_watchlist"
	default:
		return ""
	}
}

func requestPinUpdate() ProgressUpdate {
	return ProgressUpdate{Phase: Authenticate, Step: 1, Total: 2, Message: "Requesting pairing code..."}
}

func awaitingAuthUpdate(code *models.DeviceCode) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Authenticate,
		Step:    2,
		Total:   2,
		Message: fmt.Sprintf("Waiting for code %s to be entered at %s", code.UserCode, code.VerificationURL),
		Data:    code,
	}
}

func parsedUpdate(movies, shows int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ParseRecords,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Loaded %d movies and %d shows", movies, shows),
	}
}

func expandUpdate(step, total, showID int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExpandShows,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Expanding show %d (%d/%d)...", showID, step, total),
		Data:    showID,
	}
}

func submitUpdate(phase Phase, items int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   phase,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Submitting %d items...", items),
	}
}

func settleUpdate(delay fmt.Stringer) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Settle,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Waiting %s for the history to update...", delay),
	}
}

func fetchHistoryUpdate() ProgressUpdate {
	return ProgressUpdate{Phase: FetchHistory, Step: 1, Total: 1, Message: "Fetching remote history..."}
}

func reconcileUpdate(report *models.DiscrepancyReport) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Reconcile,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("%d movies and %d shows missing", len(report.MissingMovies), len(report.MissingShows)),
		Data:    report,
	}
}
