package tasks

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"slices"
	"testing"
	"time"

	"github.com/desertthunder/simklx/internal/models"
	"github.com/desertthunder/simklx/internal/records"
	"github.com/desertthunder/simklx/internal/shared"
	tu "github.com/desertthunder/simklx/internal/testing"
)

type sleepRecorder struct {
	calls []time.Duration
	err   error
}

func (s *sleepRecorder) Sleep(ctx context.Context, d time.Duration) error {
	s.calls = append(s.calls, d)
	return s.err
}

func singleImport() *records.ParseResult {
	return records.Parse([]records.Row{
		{Line: 2, Values: map[string]string{"TMDB ID": "100", "Type": "movie", "Rating": "8", "Letterboxd URL": "https://boxd.it/a"}},
		{Line: 3, Values: map[string]string{"TMDB ID": "200", "Type": "show", "Letterboxd URL": "https://boxd.it/b"}},
	})
}

func newRunEngine(history *tu.FakeHistory, sleeper *sleepRecorder, prompts *[]string, answer bool) *SyncEngine {
	return NewSyncEngine(history, &tu.FakeMetadata{Shows: map[int]*models.ShowDetails{200: tu.Show(200, 1, 2)}}, EngineOptions{
		Confirm:     confirmWith(answer, nil, prompts),
		SettleDelay: DefaultSettleDelay,
		Now:         func() time.Time { return fixedNow },
		Sleep:       sleeper.Sleep,
	})
}

func TestRun(t *testing.T) {
	t.Run("everything present", func(t *testing.T) {
		history := &tu.FakeHistory{Snapshot: &models.RemoteHistorySnapshot{
			Movies: []models.HistoryEntry{tu.Entry("A", "100", false)},
			Shows:  []models.HistoryEntry{tu.Entry("B", "200", true)},
		}}
		sleeper := &sleepRecorder{}
		engine := newRunEngine(history, sleeper, nil, true)

		result, err := engine.Run(context.Background(), singleImport(), RunOptions{}, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := []string{"pin", "resolve", "history", "all-items"}
		if !slices.Equal(history.Calls, want) {
			t.Errorf("expected calls %v, got %v", want, history.Calls)
		}

		payload := history.Submitted[0]
		if *payload.Movies[0].Rating != 8 || payload.Movies[0].WatchedAt != "2024-05-01T20:00:00Z" {
			t.Errorf("unexpected movie %+v", payload.Movies[0])
		}
		if len(payload.Shows[0].Seasons) != 1 || len(payload.Shows[0].Seasons[0].Episodes) != 2 {
			t.Errorf("unexpected show %+v", payload.Shows[0])
		}

		if !reflect.DeepEqual(sleeper.calls, []time.Duration{DefaultSettleDelay}) || !result.Settled {
			t.Errorf("expected one settle delay, got %v", sleeper.calls)
		}
		if !result.Report().Empty() {
			t.Errorf("expected empty report, got %+v", result.Report())
		}
		if result.Status() != models.RunCompleted {
			t.Errorf("expected completed, got %s", result.Status())
		}
	})

	t.Run("show missing", func(t *testing.T) {
		history := &tu.FakeHistory{Snapshot: &models.RemoteHistorySnapshot{
			Movies: []models.HistoryEntry{tu.Entry("A", "100", false)},
		}}
		engine := newRunEngine(history, &sleepRecorder{}, nil, true)

		result, err := engine.Run(context.Background(), singleImport(), RunOptions{}, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		report := result.Report()
		if len(report.MissingMovies) != 0 {
			t.Errorf("expected no missing movies, got %v", report.MissingMovies)
		}
		want := []models.MissingItem{{ID: "200", Provenance: "https://boxd.it/b"}}
		if !reflect.DeepEqual(report.MissingShows, want) {
			t.Errorf("expected %v, got %v", want, report.MissingShows)
		}
	})

	t.Run("rejected submission skips settle but still reconciles", func(t *testing.T) {
		history := &tu.FakeHistory{SubmitStatus: http.StatusBadRequest}
		sleeper := &sleepRecorder{}
		engine := newRunEngine(history, sleeper, nil, true)

		result, err := engine.Run(context.Background(), singleImport(), RunOptions{}, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(sleeper.calls) != 0 || result.Settled {
			t.Errorf("expected no settle delay, got %v", sleeper.calls)
		}
		if result.Reconcile == nil {
			t.Fatal("expected reconciliation to run")
		}
		if len(result.Report().MissingMovies) != 1 || len(result.Report().MissingShows) != 1 {
			t.Errorf("expected both items missing, got %+v", result.Report())
		}
		if result.Status() != models.RunPartial {
			t.Errorf("expected partial, got %s", result.Status())
		}
	})

	t.Run("history failure still offers watchlist", func(t *testing.T) {
		history := &tu.FakeHistory{HistoryErr: shared.ErrServiceUnavailable}
		var prompts []string
		engine := newRunEngine(history, &sleepRecorder{}, &prompts, true)

		result, err := engine.Run(context.Background(), singleImport(), RunOptions{Watchlist: singleImport()}, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !errors.Is(result.HistoryErr, shared.ErrHistoryFetch) {
			t.Errorf("expected ErrHistoryFetch, got %v", result.HistoryErr)
		}
		if result.Report() != nil {
			t.Errorf("expected no report, got %+v", result.Report())
		}
		if !slices.Contains(prompts, WatchlistPrompt) {
			t.Errorf("expected watchlist prompt, got %v", prompts)
		}
		if !result.WatchlistOK || result.Watchlist == nil || !result.Watchlist.Succeeded {
			t.Errorf("expected watchlist import, got %+v", result.Watchlist)
		}
	})

	t.Run("auth declined stops the run", func(t *testing.T) {
		history := &tu.FakeHistory{}
		engine := newRunEngine(history, &sleepRecorder{}, nil, false)

		_, err := engine.Run(context.Background(), singleImport(), RunOptions{}, nil)
		if !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}
		if slices.Contains(history.Calls, "history") {
			t.Error("nothing should be submitted without authentication")
		}
	})

	t.Run("dry run touches nothing remote", func(t *testing.T) {
		history := &tu.FakeHistory{}
		sleeper := &sleepRecorder{}
		engine := newRunEngine(history, sleeper, nil, true)

		result, err := engine.Run(context.Background(), singleImport(), RunOptions{DryRun: true}, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(history.Calls) != 0 || len(sleeper.calls) != 0 {
			t.Errorf("expected no remote calls, got %v", history.Calls)
		}
		if !result.Submission.DryRun || result.Submission.Episodes != 2 {
			t.Errorf("unexpected dry run result %+v", result.Submission)
		}
	})

	t.Run("watchlist", func(t *testing.T) {
		tests := []struct {
			name       string
			answer     bool
			assume     bool
			wantPrompt bool
			wantListed int
		}{
			{name: "accepted", answer: true, wantPrompt: true, wantListed: 1},
			{name: "declined", answer: false, wantPrompt: true, wantListed: 0},
			{name: "assumed", answer: false, assume: true, wantPrompt: false, wantListed: 1},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				history := &tu.FakeHistory{}
				var prompts []string
				engine := NewSyncEngine(history, &tu.FakeMetadata{}, EngineOptions{
					Confirm: func(ctx context.Context, prompt string) (bool, error) {
						prompts = append(prompts, prompt)
						if prompt == AuthPrompt {
							return true, nil
						}
						return tt.answer, nil
					},
					Sleep: (&sleepRecorder{}).Sleep,
				})

				_, err := engine.Run(context.Background(), singleImport(), RunOptions{Watchlist: singleImport(), AssumeWatchlist: tt.assume}, nil)
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if got := slices.Contains(prompts, WatchlistPrompt); got != tt.wantPrompt {
					t.Errorf("watchlist prompt shown = %v, want %v", got, tt.wantPrompt)
				}
				if len(history.Listed) != tt.wantListed {
					t.Errorf("expected %d list requests, got %d", tt.wantListed, len(history.Listed))
				}
			})
		}
	})

	t.Run("cancelled settle", func(t *testing.T) {
		history := &tu.FakeHistory{}
		engine := newRunEngine(history, &sleepRecorder{err: context.Canceled}, nil, true)

		_, err := engine.Run(context.Background(), singleImport(), RunOptions{}, nil)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if slices.Contains(history.Calls, "all-items") {
			t.Error("history must not be fetched after cancellation")
		}
	})

	t.Run("progress", func(t *testing.T) {
		progress := make(chan ProgressUpdate, 32)
		engine := newRunEngine(&tu.FakeHistory{}, &sleepRecorder{}, nil, true)

		if _, err := engine.Run(context.Background(), singleImport(), RunOptions{}, progress); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		close(progress)

		var phases []Phase
		for update := range progress {
			if len(phases) == 0 || phases[len(phases)-1] != update.Phase {
				phases = append(phases, update.Phase)
			}
		}
		want := []Phase{ParseRecords, Authenticate, ExpandShows, SubmitHistory, Settle, FetchHistory, Reconcile}
		if !slices.Equal(phases, want) {
			t.Errorf("expected phases %v, got %v", want, phases)
		}
	})
}
