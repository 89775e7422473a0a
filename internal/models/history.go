package models

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// HistoryMedia is the movie or show object nested in a history entry.
type HistoryMedia struct {
	Title string                     `json:"title"`
	Year  int                        `json:"year,omitempty"`
	IDs   map[string]json.RawMessage `json:"ids"`
}

// TMDBID returns the TMDB identifier as a string.
//
// Simkl encodes ids as either JSON strings or numbers; both are accepted.
// Missing, null, empty and non-scalar values report false.
func (m *HistoryMedia) TMDBID() (string, bool) {
	if m == nil {
		return "", false
	}
	raw, ok := m.IDs["tmdb"]
	if !ok {
		return "", false
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", false
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s == "" {
			return "", false
		}
		return s, true
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if i, err := n.Int64(); err == nil {
			return strconv.FormatInt(i, 10), true
		}
		return n.String(), true
	}
	return "", false
}

// HistoryEntry is one element of a movies, shows or anime list.
type HistoryEntry struct {
	Movie *HistoryMedia `json:"movie,omitempty"`
	Show  *HistoryMedia `json:"show,omitempty"`
}

// Title returns whichever nested title is present.
func (e HistoryEntry) Title() string {
	switch {
	case e.Movie != nil && e.Movie.Title != "":
		return e.Movie.Title
	case e.Show != nil:
		return e.Show.Title
	default:
		return ""
	}
}

// RemoteHistorySnapshot is the /sync/all-items response.
type RemoteHistorySnapshot struct {
	Movies []HistoryEntry `json:"movies"`
	Shows  []HistoryEntry `json:"shows"`
	Anime  []HistoryEntry `json:"anime"`
}

// Len is the number of entries across all lists.
func (s *RemoteHistorySnapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Movies) + len(s.Shows) + len(s.Anime)
}

// IDSet is a set of TMDB identifiers in string form.
type IDSet map[string]struct{}

// Add inserts id.
func (s IDSet) Add(id string) { s[id] = struct{}{} }

// Has reports whether id is present.
func (s IDSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// RemoteHistoryIndex holds the identifiers found in a snapshot, per kind.
//
// It reflects the remote state at fetch time only.
type RemoteHistoryIndex struct {
	MovieIDs IDSet
	ShowIDs  IDSet
	AnimeIDs IDSet
}

// NewRemoteHistoryIndex returns an index with empty sets.
func NewRemoteHistoryIndex() RemoteHistoryIndex {
	return RemoteHistoryIndex{MovieIDs: IDSet{}, ShowIDs: IDSet{}, AnimeIDs: IDSet{}}
}

// HasMovie reports whether id is present as a movie or as anime.
func (x RemoteHistoryIndex) HasMovie(id string) bool {
	return x.MovieIDs.Has(id) || x.AnimeIDs.Has(id)
}

// HasShow reports whether id is present as a show. Anime does not count.
func (x RemoteHistoryIndex) HasShow(id string) bool {
	return x.ShowIDs.Has(id)
}

// ExtractionSkip records a remote entry that could not contribute an identifier.
type ExtractionSkip struct {
	Kind     MediaKind
	Position int
	Title    string
	Reason   string
}

// MissingItem is an intent absent from the remote history.
type MissingItem struct {
	ID         string `json:"id"`
	Provenance string `json:"provenance"`
}

// DiscrepancyReport lists intents missing from the remote history, in source order.
type DiscrepancyReport struct {
	MissingMovies []MissingItem `json:"missing_movies"`
	MissingShows  []MissingItem `json:"missing_shows"`
}

// Empty reports whether nothing is missing.
func (r *DiscrepancyReport) Empty() bool {
	return r == nil || len(r.MissingMovies)+len(r.MissingShows) == 0
}
