package tasks

import (
	"context"
	"fmt"

	"github.com/desertthunder/simklx/internal/models"
	"github.com/desertthunder/simklx/internal/shared"
	"golang.org/x/oauth2"
)

// ReconcileResult is the comparison of intents against one history snapshot.
type ReconcileResult struct {
	RemoteItems int
	Index       models.RemoteHistoryIndex
	Skips       []models.ExtractionSkip
	Report      *models.DiscrepancyReport
}

// FetchHistory retrieves the authoritative remote history. Failures wrap [shared.ErrHistoryFetch].
func (e *SyncEngine) FetchHistory(ctx context.Context, token *oauth2.Token) (*models.RemoteHistorySnapshot, error) {
	snapshot, err := e.history.AllItems(ctx, token)
	if err != nil {
		return nil, shared.WrapKind(shared.ErrHistoryFetch, err)
	}
	return snapshot, nil
}

// Reconcile fetches the history and reports which intents are absent from it.
func (e *SyncEngine) Reconcile(ctx context.Context, token *oauth2.Token, intents []models.MediaIntent, progress chan<- ProgressUpdate) (*ReconcileResult, error) {
	e.sendProgress(progress, fetchHistoryUpdate())
	snapshot, err := e.FetchHistory(ctx, token)
	if err != nil {
		e.logger.Error("history fetch failed, skipping reconciliation", "error", err)
		return nil, err
	}

	index, skips := Index(snapshot)
	for _, skip := range skips {
		e.logger.Warn("remote item skipped", "kind", skip.Kind, "position", skip.Position, "title", skip.Title, "reason", skip.Reason)
	}

	report := Diff(intents, index)
	e.sendProgress(progress, reconcileUpdate(report))
	e.logger.Info("reconciled", "remote_items", snapshot.Len(),
		"missing_movies", len(report.MissingMovies), "missing_shows", len(report.MissingShows))

	return &ReconcileResult{
		RemoteItems: snapshot.Len(),
		Index:       index,
		Skips:       skips,
		Report:      report,
	}, nil
}

// Index extracts TMDB identifiers from a snapshot, per kind.
//
// Movies come from movies[].movie, shows from shows[].show and anime from anime[].show.
// Entries without a usable identifier are returned as skips.
func Index(snapshot *models.RemoteHistorySnapshot) (models.RemoteHistoryIndex, []models.ExtractionSkip) {
	index := models.NewRemoteHistoryIndex()
	if snapshot == nil {
		return index, nil
	}

	var skips []models.ExtractionSkip
	collect := func(kind models.MediaKind, entries []models.HistoryEntry, pick func(models.HistoryEntry) *models.HistoryMedia, into models.IDSet) {
		for i, entry := range entries {
			media := pick(entry)
			if media == nil {
				skips = append(skips, models.ExtractionSkip{Kind: kind, Position: i, Title: entry.Title(), Reason: fmt.Sprintf("entry has no %s object", mediaKey(kind))})
				continue
			}
			id, ok := media.TMDBID()
			if !ok {
				skips = append(skips, models.ExtractionSkip{Kind: kind, Position: i, Title: media.Title, Reason: "no tmdb id"})
				continue
			}
			into.Add(id)
		}
	}

	collect(models.KindMovie, snapshot.Movies, func(e models.HistoryEntry) *models.HistoryMedia { return e.Movie }, index.MovieIDs)
	collect(models.KindShow, snapshot.Shows, func(e models.HistoryEntry) *models.HistoryMedia { return e.Show }, index.ShowIDs)
	collect(models.KindAnime, snapshot.Anime, func(e models.HistoryEntry) *models.HistoryMedia { return e.Show }, index.AnimeIDs)

	return index, skips
}

func mediaKey(kind models.MediaKind) string {
	if kind == models.KindMovie {
		return "movie"
	}
	return "show"
}

// Diff lists the intents missing from index, in source order.
//
// Movies match movie or anime identifiers; shows match show identifiers only.
func Diff(intents []models.MediaIntent, index models.RemoteHistoryIndex) *models.DiscrepancyReport {
	report := &models.DiscrepancyReport{MissingMovies: []models.MissingItem{}, MissingShows: []models.MissingItem{}}

	for _, intent := range intents {
		id := shared.ExternalKey(intent.ExternalID)
		item := models.MissingItem{ID: id, Provenance: intent.SourceRef}

		switch intent.Kind {
		case models.KindMovie:
			if !index.HasMovie(id) {
				report.MissingMovies = append(report.MissingMovies, item)
			}
		case models.KindShow:
			if !index.HasShow(id) {
				report.MissingShows = append(report.MissingShows, item)
			}
		}
	}

	return report
}
