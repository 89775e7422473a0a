package models

import "time"

// WatchedAtLayout is the timestamp format sent in watched_at.
const WatchedAtLayout = time.RFC3339

// TMDBIDs is the ids object of a submitted item.
type TMDBIDs struct {
	TMDB int `json:"tmdb"`
}

// SyncMovie is a movie entry of a history submission.
type SyncMovie struct {
	IDs       TMDBIDs `json:"ids"`
	WatchedAt string  `json:"watched_at"`
	Rating    *int    `json:"rating,omitempty"`
}

// SyncEpisode is an episode entry of a season.
type SyncEpisode struct {
	Number int `json:"number"`
}

// SyncSeason is a season entry of a show.
type SyncSeason struct {
	Number   int           `json:"number"`
	Episodes []SyncEpisode `json:"episodes"`
}

// SyncShow is a show entry of a history submission.
//
// Seasons is omitted when the metadata lookup failed or found no episodes.
type SyncShow struct {
	IDs     TMDBIDs      `json:"ids"`
	Seasons []SyncSeason `json:"seasons,omitempty"`
}

// SyncPayload is the body of POST /sync/history.
type SyncPayload struct {
	Movies []SyncMovie `json:"movies"`
	Shows  []SyncShow  `json:"shows"`
}

// NewSyncPayload returns an empty payload whose lists encode as [] rather than null.
func NewSyncPayload() *SyncPayload {
	return &SyncPayload{Movies: []SyncMovie{}, Shows: []SyncShow{}}
}

// AddMovie appends a movie stamped with watchedAt.
func (p *SyncPayload) AddMovie(intent MediaIntent, watchedAt time.Time) {
	p.Movies = append(p.Movies, SyncMovie{
		IDs:       TMDBIDs{TMDB: intent.ExternalID},
		WatchedAt: watchedAt.UTC().Format(WatchedAtLayout),
		Rating:    intent.Rating,
	})
}

// AddShow appends a show with the given season manifests.
func (p *SyncPayload) AddShow(intent MediaIntent, manifests []EpisodeManifest) {
	show := SyncShow{IDs: TMDBIDs{TMDB: intent.ExternalID}}
	for _, m := range manifests {
		season := SyncSeason{Number: m.SeasonNumber, Episodes: make([]SyncEpisode, 0, len(m.EpisodeNumbers))}
		for _, n := range m.EpisodeNumbers {
			season.Episodes = append(season.Episodes, SyncEpisode{Number: n})
		}
		show.Seasons = append(show.Seasons, season)
	}
	p.Shows = append(p.Shows, show)
}

// Len is the number of items in the payload.
func (p *SyncPayload) Len() int {
	return len(p.Movies) + len(p.Shows)
}

// EpisodeCount is the number of episodes attached across all shows.
func (p *SyncPayload) EpisodeCount() int {
	total := 0
	for _, show := range p.Shows {
		for _, season := range show.Seasons {
			total += len(season.Episodes)
		}
	}
	return total
}

// ListItem is one entry of a watchlist submission.
type ListItem struct {
	To  string  `json:"to"`
	IDs TMDBIDs `json:"ids"`
}

// ListPayload is the body of POST /sync/add-to-list.
type ListPayload struct {
	Movies []ListItem `json:"movies"`
	Shows  []ListItem `json:"shows"`
}

// NewListPayload builds a watchlist payload placing every intent on list.
func NewListPayload(list string, movies, shows []MediaIntent) *ListPayload {
	p := &ListPayload{Movies: make([]ListItem, 0, len(movies)), Shows: make([]ListItem, 0, len(shows))}
	for _, m := range movies {
		p.Movies = append(p.Movies, ListItem{To: list, IDs: TMDBIDs{TMDB: m.ExternalID}})
	}
	for _, s := range shows {
		p.Shows = append(p.Shows, ListItem{To: list, IDs: TMDBIDs{TMDB: s.ExternalID}})
	}
	return p
}

// Len is the number of items in the payload.
func (p *ListPayload) Len() int {
	return len(p.Movies) + len(p.Shows)
}
